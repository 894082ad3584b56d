package queue

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ResultWriter stores a task result. Satisfied by *asynq.ResultWriter.
type ResultWriter interface {
	io.Writer
}

// Worker executes generation tasks against the in-process pipeline
type Worker struct {
	pipeline domain.OutfitGenerator
	server   *asynq.Server
	log      zerolog.Logger
}

// NewWorker creates a worker. The asynq server is created by Start.
func NewWorker(pipeline domain.OutfitGenerator, log zerolog.Logger) *Worker {
	return &Worker{
		pipeline: pipeline,
		log:      log.With().Str("component", "outfit_worker").Logger(),
	}
}

// Start runs the asynq server in the background
func (w *Worker) Start(redisOpt asynq.RedisConnOpt, concurrency int) error {
	w.server = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueName: 1},
		RetryDelayFunc: func(int, error, *asynq.Task) time.Duration {
			return retryBackoff
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			id, _ := asynq.GetTaskID(ctx)
			w.log.Warn().Err(err).Str("task_id", id).Msg("Outfit job failed")
		}),
		Logger:   asynqLogger{log: w.log},
		LogLevel: asynq.WarnLevel,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskGenerate, w.ProcessTask)

	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start outfit worker: %w", err)
	}
	w.log.Info().Int("concurrency", concurrency).Msg("Outfit worker started")
	return nil
}

// Shutdown stops the asynq server, waiting for active tasks
func (w *Worker) Shutdown() {
	if w.server != nil {
		w.server.Shutdown()
	}
}

// ProcessTask handles one outfit:generate task
func (w *Worker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	return w.process(ctx, task.Payload(), task.ResultWriter())
}

func (w *Worker) process(ctx context.Context, payload []byte, out ResultWriter) error {
	p, err := decodePayload(payload)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	outfit, err := w.pipeline.GenerateOutfit(ctx, p.Request, p.Options())
	if err != nil {
		failure := failureFor(err)
		if failure == nil {
			return err
		}
		if writeErr := writeResult(out, jobResult{Failure: failure}); writeErr != nil {
			return writeErr
		}
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return writeResult(out, jobResult{Outfit: outfit})
}

func writeResult(out ResultWriter, r jobResult) error {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode generation result: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write generation result: %w", err)
	}
	return nil
}

// asynqLogger routes asynq's internal logging through zerolog
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
