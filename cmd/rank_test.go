package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-ranker/internal/models"
	"github.com/spigell/resume-ranker/internal/orchestrator"
)

func TestExitCode(t *testing.T) {
	report := &models.BatchReport{RunID: "run-1", State: models.StateCompleted}
	paths := []string{"output/evaluation_results.json"}

	cases := []struct {
		name     string
		runErr   error
		writeErr error
		want     int
		message  string
	}{
		{name: "completed", want: 0, message: "ranking finished"},
		{
			name:    "extraction failed",
			runErr:  &orchestrator.ExtractionError{Failure: models.FailureRecord{Kind: models.KindSchemaViolation, Attempts: 3}, Err: errors.New("bad answer")},
			want:    1,
			message: "cannot rank resumes without job requirements",
		},
		{
			name:    "aborted",
			runErr:  &orchestrator.AbortedError{Cause: context.Canceled},
			want:    1,
			message: "ranking run aborted",
		},
		{name: "report not written", writeErr: errors.New("disk full"), want: 1, message: "writing reports"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)

			got := exitCode(zap.New(core), report, paths, tc.runErr, tc.writeErr)

			assert.Equal(t, tc.want, got)
			assert.Equal(t, 1, logs.FilterMessage(tc.message).Len())
			assert.Zero(t, logs.FilterLevelExact(zapcore.FatalLevel).Len())
		})
	}
}

func TestRedactedHidesAPIKey(t *testing.T) {
	cfg := &Config{Gemini: GeminiConfig{APIKey: "secret"}}
	assert.Equal(t, "***", redacted(cfg).Gemini.APIKey)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
}
