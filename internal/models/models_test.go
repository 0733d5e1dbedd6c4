package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPrefersRequiredSpelling(t *testing.T) {
	req := JobRequirements{
		RequiredSkills:   []string{"Go", "PostgreSQL"},
		NiceToHaveSkills: []string{"Kubernetes", "go"},
	}

	got, ok := req.Canonical("  GO ")
	assert.True(t, ok)
	assert.Equal(t, "Go", got)

	got, ok = req.Canonical("kubernetes")
	assert.True(t, ok)
	assert.Equal(t, "Kubernetes", got)

	_, ok = req.Canonical("Rust")
	assert.False(t, ok)

	assert.True(t, req.Requires("postgresql"))
	assert.False(t, req.Requires("Kubernetes"))
}

func TestBatchReportCounts(t *testing.T) {
	report := &BatchReport{Entries: []Entry{
		{FileID: "a.txt", Score: &FitScoreResult{Recommendation: Shortlist}},
		{FileID: "b.txt", Score: &FitScoreResult{Recommendation: Reject}},
		{FileID: "c.txt", Failure: &FailureRecord{Kind: KindTimeout, Attempts: 3, Retries: 2}},
		{FileID: "d.txt", Score: &FitScoreResult{Recommendation: Shortlist}},
		{FileID: "e.txt"},
	}}

	tiers, failed := report.Counts()
	assert.Equal(t, 2, tiers[Shortlist])
	assert.Equal(t, 0, tiers[Review])
	assert.Equal(t, 1, tiers[Reject])
	assert.Equal(t, 2, failed)
}

func TestBatchStateTerminal(t *testing.T) {
	for state, terminal := range map[BatchState]bool{
		StatePending:                false,
		StateExtractingRequirements: false,
		StateEvaluatingCandidates:   false,
		StateCompleted:              true,
		StateExtractionFailed:       true,
		StateAborted:                true,
	} {
		assert.Equal(t, terminal, state.Terminal(), state)
	}
}

type kindedError struct{ kind ErrorKind }

func (e *kindedError) Error() string   { return string(e.kind) }
func (e *kindedError) Kind() ErrorKind { return e.kind }

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))

	wrapped := fmt.Errorf("attempt 2: %w", &kindedError{kind: KindMalformedJSON})
	assert.Equal(t, KindMalformedJSON, KindOf(wrapped))
}

func TestRetryable(t *testing.T) {
	retryable := []ErrorKind{KindConnection, KindTimeout, KindNoJSONFound, KindMalformedJSON, KindSchemaViolation, KindValueDomain}
	for _, k := range retryable {
		assert.True(t, k.Retryable(), k)
	}
	for _, k := range []ErrorKind{KindModelNotFound, KindCanceled, KindRequirementsUnavailable, KindUnknown} {
		assert.False(t, k.Retryable(), k)
	}
}
