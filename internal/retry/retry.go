// Package retry runs a model call plus response decoding under a bounded
// attempt budget and reports the result as data.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/ai"
	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/models"
	"github.com/spigell/resume-ranker/internal/utils"
)

// Call is one logical request. Decode validates the raw answer and keeps
// whatever it extracted; a non-nil error consumes the attempt.
type Call struct {
	Stage       string
	Logger      *zap.Logger
	Prompt      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	Decode      func(raw string) error
}

// Outcome is the result of a Call. Failure is nil on success.
type Outcome struct {
	Attempts int
	Retries  int
	Failure  *models.FailureRecord
	Err      error
}

func (o Outcome) OK() bool { return o.Failure == nil }

// AttemptObserver is told about every attempt. kind is empty on success.
type AttemptObserver interface {
	ObserveAttempt(stage string, kind models.ErrorKind)
}

// Controller owns the retry loop around an ai.Completer.
type Controller struct {
	completer ai.Completer
	policy    Policy
	logger    *zap.Logger
	observer  AttemptObserver
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Controller.
type Option func(*Controller)

func WithObserver(o AttemptObserver) Option {
	return func(c *Controller) { c.observer = o }
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New validates policy and builds a Controller.
func New(completer ai.Completer, policy Policy, log *zap.Logger, opts ...Option) (*Controller, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry policy: %w", err)
	}

	c := &Controller{
		completer: completer,
		policy:    policy,
		logger:    logger.WithFields(log),
		sleep:     utils.WaitFor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Call never returns an error; failures are reported in the Outcome.
func (c *Controller) Call(ctx context.Context, call Call) Outcome {
	log := c.logger
	if call.Logger != nil {
		log = call.Logger
	}
	log = log.With(zap.String(logger.FieldStage, call.Stage), zap.String(logger.FieldModel, call.Model))
	req := ai.Request{
		Prompt:      call.Prompt,
		Model:       call.Model,
		Temperature: call.Temperature,
		Timeout:     call.Timeout,
	}

	var (
		lastErr  error
		attempts int
	)

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return interrupted(ctx, attempts, lastErr)
		}
		attempts = attempt

		err := c.attempt(ctx, req, call.Decode)
		if err == nil {
			c.observe(call.Stage, "")
			if attempt > 1 {
				log.Info("call succeeded after retries", zap.Int(logger.FieldAttempt, attempt))
			}
			return Outcome{Attempts: attempt, Retries: attempt - 1}
		}

		if ctx.Err() != nil {
			return interrupted(ctx, attempts, err)
		}

		lastErr = err
		kind := models.KindOf(err)
		c.observe(call.Stage, kind)

		if !kind.Retryable() {
			log.Error("call failed with a non-retryable error",
				zap.Int(logger.FieldAttempt, attempt),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			return failed(kind, attempts, err)
		}

		if attempt == c.policy.MaxAttempts {
			break
		}

		delay := c.policy.Backoff.Delay(attempt)
		msg := "model response rejected, retrying"
		if ai.IsTransient(err) {
			msg = "backend call failed, retrying"
		}
		log.Warn(msg,
			zap.Int(logger.FieldAttempt, attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.String("kind", string(kind)),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		if err := c.sleep(ctx, delay); err != nil {
			return interrupted(ctx, attempts, lastErr)
		}
	}

	kind := models.KindOf(lastErr)
	log.Error("call failed after all attempts",
		zap.Int("attempts", attempts),
		zap.String("kind", string(kind)),
		zap.Error(lastErr),
	)
	return failed(kind, attempts, lastErr)
}

func (c *Controller) attempt(ctx context.Context, req ai.Request, decode func(string) error) error {
	raw, err := c.completer.Complete(ctx, req)
	if err != nil {
		return err
	}
	if decode == nil {
		return nil
	}
	return decode(raw)
}

func (c *Controller) observe(stage string, kind models.ErrorKind) {
	if c.observer != nil {
		c.observer.ObserveAttempt(stage, kind)
	}
}

func failed(kind models.ErrorKind, attempts int, err error) Outcome {
	retries := attempts - 1
	if retries < 0 {
		retries = 0
	}
	return Outcome{
		Attempts: attempts,
		Retries:  retries,
		Err:      err,
		Failure: &models.FailureRecord{
			Kind:     kind,
			Attempts: attempts,
			Retries:  retries,
			Message:  err.Error(),
		},
	}
}

// interrupted reports a call stopped by its context. A deadline is a timeout;
// anything else is a cancellation.
func interrupted(ctx context.Context, attempts int, last error) Outcome {
	kind := models.KindCanceled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = models.KindTimeout
	}

	err := ctx.Err()
	if last != nil {
		err = fmt.Errorf("%w (last error: %v)", ctx.Err(), last)
	}
	return failed(kind, attempts, err)
}
