// Package queue runs outfit generation as asynq jobs on a redis-backed queue,
// with a synchronous fallback to the in-process pipeline.
package queue

import (
	"errors"
	"fmt"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// Queue and task names
const (
	QueueName    = "outfit-generation"
	TaskGenerate = "outfit:generate"
)

// GeneratePayload is the job body of one generation
type GeneratePayload struct {
	Request         domain.OutfitRequest           `msgpack:"request"`
	UserID          string                         `msgpack:"userId,omitempty"`
	Personalization *domain.PersonalizationSignals `msgpack:"personalization,omitempty"`
	Monetization    *domain.MonetizationSignals    `msgpack:"monetization,omitempty"`
}

// Options rebuilds the generation options carried by the payload
func (p GeneratePayload) Options() domain.GenerateOptions {
	return domain.GenerateOptions{
		UserID:          p.UserID,
		Personalization: p.Personalization,
		Monetization:    p.Monetization,
	}
}

// jobResult is written to the task result by the worker. Composition and
// validation failures are carried as data so the caller can rebuild the typed error.
type jobResult struct {
	Outfit  *domain.OutfitResult `msgpack:"outfit,omitempty"`
	Failure *jobFailure          `msgpack:"failure,omitempty"`
}

type jobFailure struct {
	Kind    string   `msgpack:"kind"`
	Field   string   `msgpack:"field,omitempty"`
	Message string   `msgpack:"message"`
	Reasons []string `msgpack:"reasons,omitempty"`
}

const (
	failureComposition = "composition"
	failureValidation  = "validation"
)

// failureFor converts a non-retryable pipeline error, or returns nil
func failureFor(err error) *jobFailure {
	var (
		compositionErr *domain.CompositionError
		validationErr  *domain.ValidationError
	)
	switch {
	case errors.As(err, &compositionErr):
		return &jobFailure{Kind: failureComposition, Message: compositionErr.Message, Reasons: compositionErr.Reasons}
	case errors.As(err, &validationErr):
		return &jobFailure{Kind: failureValidation, Field: validationErr.Field, Message: validationErr.Message}
	default:
		return nil
	}
}

func (f *jobFailure) err() error {
	if f.Kind == failureValidation {
		return domain.NewValidationError(f.Field, f.Message)
	}
	return &domain.CompositionError{Message: f.Message, Reasons: f.Reasons}
}

func encodePayload(req domain.OutfitRequest, opts domain.GenerateOptions) ([]byte, error) {
	data, err := msgpack.Marshal(GeneratePayload{
		Request:         req,
		UserID:          opts.UserID,
		Personalization: opts.Personalization,
		Monetization:    opts.Monetization,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation payload: %w", err)
	}
	return data, nil
}

func decodePayload(data []byte) (GeneratePayload, error) {
	var p GeneratePayload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to decode generation payload: %w", err)
	}
	return p, nil
}

func decodeResult(data []byte) (*domain.OutfitResult, error) {
	var r jobResult
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode generation result: %w", err)
	}
	if r.Failure != nil {
		return nil, r.Failure.err()
	}
	if r.Outfit == nil {
		return nil, fmt.Errorf("generation result is empty")
	}
	return r.Outfit, nil
}
