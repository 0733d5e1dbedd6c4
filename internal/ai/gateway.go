// Package ai is the single chokepoint for calls to the inference backend.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/models"
	"github.com/spigell/resume-ranker/internal/utils"
)

const defaultMaxLogLength = 200

// Request is one prompt-in, text-out call.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Backend talks to a concrete inference server. Implementations return
// *ModelNotFoundError for unknown models; every other failure is classified by
// the Gateway.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// ModelLister is implemented by backends that can enumerate installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

//go:generate mockgen -destination=mocks/completer.go -package=mocks github.com/spigell/resume-ranker/internal/ai Completer

// Completer is what the rest of the engine depends on.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Observer receives one notification per gateway call. kind is empty on success.
type Observer interface {
	ObserveCall(backend, model string, kind models.ErrorKind, elapsed time.Duration)
}

// Gateway owns timeouts and error classification for a Backend. It never retries.
type Gateway struct {
	backend   Backend
	logger    *zap.Logger
	observer  Observer
	maxLogLen int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithObserver reports every call to o.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithMaxLogLength bounds prompt and response previews in debug logs.
func WithMaxLogLength(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxLogLen = n
		}
	}
}

// NewGateway wraps backend.
func NewGateway(backend Backend, log *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		backend:   backend,
		maxLogLen: defaultMaxLogLength,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logger.WithCommonFields(log, backend.Name(), "")
	return g
}

// Complete sends req.Prompt to the backend and returns the raw text.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt must not be empty")
	}
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("model must not be empty")
	}

	callCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	g.logger.Debug("model request",
		zap.String(logger.FieldModel, req.Model),
		zap.Float64("temperature", req.Temperature),
		zap.Duration("timeout", req.Timeout),
		zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(req.Prompt, g.maxLogLen)),
	)

	start := time.Now()
	raw, err := g.backend.Generate(callCtx, req)
	elapsed := time.Since(start)

	if err != nil {
		err = g.classify(ctx, callCtx, req, err)
		g.observe(req.Model, models.KindOf(err), elapsed)
		g.logger.Debug("model request failed",
			zap.String(logger.FieldModel, req.Model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", err
	}

	g.observe(req.Model, "", elapsed)
	g.logger.Debug("model response",
		zap.String(logger.FieldModel, req.Model),
		zap.Duration("elapsed", elapsed),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
	)

	return raw, nil
}

func (g *Gateway) classify(parent, call context.Context, req Request, err error) error {
	var notFound *ModelNotFoundError
	var conn *ConnectionError
	var timeout *TimeoutError
	switch {
	case errors.As(err, &notFound), errors.As(err, &conn), errors.As(err, &timeout):
		return err
	case errors.Is(parent.Err(), context.Canceled):
		// The caller gave up; this is not a backend failure.
		return fmt.Errorf("%s request canceled: %w", g.backend.Name(), parent.Err())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(call.Err(), context.DeadlineExceeded):
		return &TimeoutError{Backend: g.backend.Name(), Timeout: req.Timeout, Err: err}
	default:
		return &ConnectionError{Backend: g.backend.Name(), Err: err}
	}
}

func (g *Gateway) observe(model string, kind models.ErrorKind, elapsed time.Duration) {
	if g.observer != nil {
		g.observer.ObserveCall(g.backend.Name(), model, kind, elapsed)
	}
}
