package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Job settings
const (
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 6

	maxAttempts     = 2
	retryBackoff    = 700 * time.Millisecond
	resultRetention = 10 * time.Minute
	pollInterval    = 150 * time.Millisecond
)

// Enqueuer submits tasks. Satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Inspector reads task and queue state. Satisfied by *asynq.Inspector.
type Inspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Stats is a snapshot of the generation queue
type Stats struct {
	Enabled   bool `json:"enabled"`
	Waiting   int  `json:"waiting"`
	Active    int  `json:"active"`
	Delayed   int  `json:"delayed"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
}

// Queue generates outfits through asynq workers, falling back to the direct
// pipeline when the queue is disabled or a job cannot be enqueued or awaited.
type Queue struct {
	direct       domain.OutfitGenerator
	client       Enqueuer
	inspector    Inspector
	timeout      time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
}

// New creates a queue over an asynq client and inspector
func New(direct domain.OutfitGenerator, client Enqueuer, inspector Inspector, timeout time.Duration, log zerolog.Logger) *Queue {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Queue{
		direct:       direct,
		client:       client,
		inspector:    inspector,
		timeout:      timeout,
		pollInterval: pollInterval,
		log:          log.With().Str("component", "outfit_queue").Logger(),
	}
}

// Disabled creates a queue that always calls the pipeline directly
func Disabled(direct domain.OutfitGenerator, log zerolog.Logger) *Queue {
	return New(direct, nil, nil, DefaultTimeout, log)
}

// Open connects an asynq client and inspector to redis
func Open(direct domain.OutfitGenerator, redisOpt asynq.RedisConnOpt, timeout time.Duration, log zerolog.Logger) *Queue {
	return New(direct, asynq.NewClient(redisOpt), asynq.NewInspector(redisOpt), timeout, log)
}

// RedisOpt converts a redis URL or host:port into asynq connection options
func RedisOpt(redisURL string) (asynq.RedisConnOpt, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is empty")
	}
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := asynq.ParseRedisURI(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}
	return asynq.RedisClientOpt{Addr: redisURL}, nil
}

// Enabled reports whether jobs go through redis
func (q *Queue) Enabled() bool {
	return q.client != nil && q.inspector != nil
}

// GenerateOutfit runs one generation. Requests that stream progress run
// in-process since step callbacks cannot cross the queue.
func (q *Queue) GenerateOutfit(ctx context.Context, req domain.OutfitRequest, opts domain.GenerateOptions) (*domain.OutfitResult, error) {
	if !q.Enabled() || opts.Progress != nil {
		return q.direct.GenerateOutfit(ctx, req, opts)
	}

	outfit, err := q.enqueueAndWait(ctx, req, opts)
	if err == nil {
		return outfit, nil
	}

	var compositionErr *domain.CompositionError
	if errors.As(err, &compositionErr) || domain.IsValidationError(err) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	q.log.Warn().Err(err).Msg("Queue generation failed, falling back to direct mode")
	return q.direct.GenerateOutfit(ctx, req, opts)
}

func (q *Queue) enqueueAndWait(ctx context.Context, req domain.OutfitRequest, opts domain.GenerateOptions) (*domain.OutfitResult, error) {
	payload, err := encodePayload(req, opts)
	if err != nil {
		return nil, err
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TaskGenerate, payload),
		asynq.Queue(QueueName),
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(maxAttempts-1),
		asynq.Timeout(q.timeout),
		asynq.Retention(resultRetention),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue generation: %w", err)
	}

	q.log.Debug().Str("task_id", info.ID).Msg("Generation enqueued")
	return q.wait(ctx, info.ID)
}

// wait polls the task until it completes, is archived or the timeout passes
func (q *Queue) wait(ctx context.Context, id string) (*domain.OutfitResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		info, err := q.inspector.GetTaskInfo(QueueName, id)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect task %s: %w", id, err)
		}

		switch info.State {
		case asynq.TaskStateCompleted:
			return decodeResult(info.Result)
		case asynq.TaskStateArchived:
			if len(info.Result) > 0 {
				return decodeResult(info.Result)
			}
			return nil, fmt.Errorf("task %s failed: %s", id, info.LastErr)
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("timed out waiting for task %s: %w", id, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// Stats returns queue counters; zero values when disabled
func (q *Queue) Stats() Stats {
	if !q.Enabled() {
		return Stats{}
	}

	info, err := q.inspector.GetQueueInfo(QueueName)
	if err != nil {
		if !errors.Is(err, asynq.ErrQueueNotFound) {
			q.log.Warn().Err(err).Msg("Failed to read queue stats")
		}
		return Stats{Enabled: true}
	}

	return Stats{
		Enabled:   true,
		Waiting:   info.Pending,
		Active:    info.Active,
		Delayed:   info.Scheduled + info.Retry,
		Completed: info.Completed,
		Failed:    info.Archived,
	}
}

// Close releases the redis connections
func (q *Queue) Close() error {
	var errs []error
	for _, c := range []interface{}{q.client, q.inspector} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
