// Package orchestrator drives a ranking run: requirement extraction followed by
// concurrent candidate evaluation and scoring.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-ranker/internal/logger"
	"github.com/spigell/resume-ranker/internal/models"
	"github.com/spigell/resume-ranker/internal/prompt"
	"github.com/spigell/resume-ranker/internal/response"
	"github.com/spigell/resume-ranker/internal/retry"
	"github.com/spigell/resume-ranker/internal/scoring"
)

const (
	StageExtraction = "extraction"
	StageEvaluation = "evaluation"
)

// Config is everything a run needs besides its collaborators.
type Config struct {
	Model                    string
	Temperature              float64
	Timeout                  time.Duration
	MaxConcurrentEvaluations int
	CandidateTimeout         time.Duration
	Rubric                   scoring.Rubric
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model is required")
	}
	if c.Temperature < 0 {
		return fmt.Errorf("temperature must not be negative, got %v", c.Temperature)
	}
	if c.Timeout < 0 || c.CandidateTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.MaxConcurrentEvaluations < 1 {
		return fmt.Errorf("max concurrent evaluations must be at least 1, got %d", c.MaxConcurrentEvaluations)
	}
	if err := c.Rubric.Validate(); err != nil {
		return fmt.Errorf("invalid rubric: %w", err)
	}
	return nil
}

// Caller runs one logical model call under the retry budget.
type Caller interface {
	Call(ctx context.Context, call retry.Call) retry.Outcome
}

// ProgressFunc is called once per resolved candidate, possibly from several
// goroutines at once.
type ProgressFunc func(current, total int, message string)

// Observer is told about every resolved slot and the finished batch.
// ObserveCandidate may be called concurrently.
type Observer interface {
	ObserveCandidate(entry models.Entry)
	ObserveBatch(report *models.BatchReport)
}

// Orchestrator runs batches. It holds no per-run state and may be reused.
type Orchestrator struct {
	config   Config
	caller   Caller
	parser   *response.Parser
	logger   *zap.Logger
	progress ProgressFunc
	observer Observer
	newID    func() string
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// New validates cfg and builds an Orchestrator.
func New(cfg Config, caller Caller, parser *response.Parser, log *zap.Logger, opts ...Option) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid orchestrator config: %w", err)
	}
	if caller == nil {
		return nil, errors.New("caller is required")
	}
	if parser == nil {
		return nil, errors.New("parser is required")
	}

	o := &Orchestrator{
		config: cfg,
		caller: caller,
		parser: parser,
		logger: logger.WithFields(log),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// batch is the state of one run. Entries are index-addressed; each slot is
// written by exactly one task.
type batch struct {
	report *models.BatchReport
	logger *zap.Logger
}

func (b *batch) transition(to models.BatchState) error {
	if err := checkTransition(b.report.State, to); err != nil {
		return err
	}
	b.logger.Debug("batch state changed",
		zap.String("from", string(b.report.State)),
		zap.String("to", string(to)),
	)
	b.report.State = to
	return nil
}

// Run ranks resumes against jobDescription. The report always holds one entry
// per resume in input order. The returned error is *ExtractionError when no
// requirements could be extracted and *AbortedError when the run was canceled
// or hit a fatal model error.
func (o *Orchestrator) Run(ctx context.Context, jobDescription string, resumes []models.Resume) (*models.BatchReport, error) {
	runID := o.newID()
	b := &batch{
		report: &models.BatchReport{
			RunID:     runID,
			Model:     o.config.Model,
			State:     models.StatePending,
			StartedAt: o.now(),
			Entries:   make([]models.Entry, len(resumes)),
		},
		logger: o.logger.With(zap.String(logger.FieldRunID, runID)),
	}
	for i, r := range resumes {
		b.report.Entries[i].FileID = r.FileID
	}

	b.logger.Info("starting ranking run",
		zap.String(logger.FieldModel, o.config.Model),
		zap.Int("resumes", len(resumes)),
		zap.Int("max_concurrent_evaluations", o.config.MaxConcurrentEvaluations),
	)

	err := o.run(ctx, b, jobDescription, resumes)

	b.report.FinishedAt = o.now()
	tiers, failed := b.report.Counts()
	b.logger.Info("ranking run finished",
		zap.String("state", string(b.report.State)),
		zap.Int("shortlist", tiers[models.Shortlist]),
		zap.Int("review", tiers[models.Review]),
		zap.Int("reject", tiers[models.Reject]),
		zap.Int("failed", failed),
		zap.Duration("elapsed", b.report.FinishedAt.Sub(b.report.StartedAt)),
	)
	if o.observer != nil {
		o.observer.ObserveBatch(b.report)
	}

	return b.report, err
}

func (o *Orchestrator) run(ctx context.Context, b *batch, jobDescription string, resumes []models.Resume) error {
	if err := b.transition(models.StateExtractingRequirements); err != nil {
		return err
	}

	requirements, outcome := o.extract(ctx, b.logger, jobDescription)
	if !outcome.OK() {
		return o.failExtraction(ctx, b, outcome)
	}

	// Requirements are read-only from here on.
	b.report.JobRequirements = &requirements
	if err := b.transition(models.StateEvaluatingCandidates); err != nil {
		return err
	}

	batchCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		g    errgroup.Group
		done atomic.Int64
	)
	g.SetLimit(o.config.MaxConcurrentEvaluations)

	for i := range resumes {
		g.Go(func() error {
			entry := o.evaluate(batchCtx, b.report.RunID, requirements, resumes[i])
			b.report.Entries[i] = entry

			if entry.Failure != nil && entry.Failure.Kind == models.KindModelNotFound {
				cancel(&modelUnavailableError{model: o.config.Model, message: entry.Failure.Message})
			}
			if o.observer != nil {
				o.observer.ObserveCandidate(entry)
			}
			o.reportProgress(int(done.Add(1)), len(resumes), entry)
			return nil
		})
	}
	_ = g.Wait()

	var unavailable *modelUnavailableError
	if cause := context.Cause(batchCtx); errors.As(cause, &unavailable) {
		_ = b.transition(models.StateAborted)
		return &AbortedError{Cause: cause}
	}
	// A cancellation that arrives after every slot resolved changes nothing.
	if ctx.Err() != nil && canceledSlots(b.report.Entries) > 0 {
		_ = b.transition(models.StateAborted)
		return &AbortedError{Cause: context.Cause(ctx)}
	}

	return b.transition(models.StateCompleted)
}

func (o *Orchestrator) extract(ctx context.Context, log *zap.Logger, jobDescription string) (models.JobRequirements, retry.Outcome) {
	var requirements models.JobRequirements

	p, err := prompt.BuildExtractionPrompt(jobDescription)
	if err != nil {
		return requirements, unattempted(models.KindUnknown, err)
	}

	outcome := o.caller.Call(ctx, retry.Call{
		Stage:       StageExtraction,
		Logger:      log,
		Prompt:      p,
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
		Timeout:     o.config.Timeout,
		Decode: func(raw string) error {
			decoded, err := o.parser.DecodeRequirements(raw)
			if err != nil {
				return err
			}
			requirements = decoded
			return nil
		},
	})
	if outcome.OK() {
		log.Info("job requirements extracted",
			zap.Strings("required_skills", requirements.RequiredSkills),
			zap.Strings("nice_to_have_skills", requirements.NiceToHaveSkills),
			zap.String("experience_level", string(requirements.ExperienceLevel)),
			zap.Int("retries", outcome.Retries),
		)
	}
	return requirements, outcome
}

func (o *Orchestrator) failExtraction(ctx context.Context, b *batch, outcome retry.Outcome) error {
	failure := *outcome.Failure
	b.report.ExtractionFailure = &failure

	slotKind := models.KindRequirementsUnavailable
	state := models.StateExtractionFailed
	if ctx.Err() != nil {
		slotKind = models.KindCanceled
		state = models.StateAborted
	}

	for i := range b.report.Entries {
		b.report.Entries[i].Failure = &models.FailureRecord{
			Kind:    slotKind,
			Message: "job requirements are unavailable",
		}
	}

	if err := b.transition(state); err != nil {
		return err
	}

	extractionErr := &ExtractionError{Failure: failure, Err: outcome.Err}
	b.logger.Error("job requirement extraction failed", zap.Error(extractionErr))
	if state == models.StateAborted {
		return &AbortedError{Cause: extractionErr}
	}
	return extractionErr
}

func (o *Orchestrator) evaluate(ctx context.Context, runID string, requirements models.JobRequirements, resume models.Resume) models.Entry {
	entry := models.Entry{FileID: resume.FileID}
	log := logger.WithCandidate(o.logger, runID, resume.FileID)

	if o.config.CandidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.CandidateTimeout)
		defer cancel()
	}

	p, err := prompt.BuildEvaluationPrompt(requirements, resume.Text)
	if err != nil {
		log.Warn("cannot build evaluation prompt", zap.Error(err))
		entry.Failure = unattempted(models.KindUnknown, err).Failure
		return entry
	}

	var evaluation models.CandidateEvaluation
	outcome := o.caller.Call(ctx, retry.Call{
		Stage:       StageEvaluation,
		Logger:      log,
		Prompt:      p,
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
		Timeout:     o.config.Timeout,
		Decode: func(raw string) error {
			decoded, err := o.parser.DecodeEvaluation(raw, requirements, resume.FileID)
			if err != nil {
				return err
			}
			evaluation = decoded
			return nil
		},
	})
	if !outcome.OK() {
		entry.Failure = outcome.Failure
		log.Warn("candidate evaluation failed",
			zap.String("kind", string(outcome.Failure.Kind)),
			zap.Int("attempts", outcome.Failure.Attempts),
		)
		return entry
	}

	score := o.config.Rubric.Score(evaluation, requirements)
	entry.Evaluation = &evaluation
	entry.Score = &score

	log.Info("candidate evaluated",
		zap.String("candidate", evaluation.CandidateName),
		zap.Float64("fit_score", score.FitScore),
		zap.String("recommendation", string(score.Recommendation)),
		zap.Int("retries", outcome.Retries),
	)
	return entry
}

func (o *Orchestrator) reportProgress(current, total int, entry models.Entry) {
	if o.progress == nil {
		return
	}
	msg := fmt.Sprintf("evaluated %s", entry.FileID)
	if entry.Failed() {
		msg = fmt.Sprintf("failed %s (%s)", entry.FileID, entry.Failure.Kind)
	}
	o.progress(current, total, msg)
}

func canceledSlots(entries []models.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Failure != nil && e.Failure.Kind == models.KindCanceled {
			n++
		}
	}
	return n
}

func unattempted(kind models.ErrorKind, err error) retry.Outcome {
	return retry.Outcome{
		Err:     err,
		Failure: &models.FailureRecord{Kind: kind, Message: err.Error()},
	}
}
