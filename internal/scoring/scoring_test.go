package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-ranker/internal/models"
)

func TestSkillMatchRatio(t *testing.T) {
	cases := []struct {
		name     string
		matched  []string
		required []string
		want     float64
	}{
		{name: "empty required", matched: []string{"Go"}, required: nil, want: 1.0},
		{name: "nothing matched", matched: nil, required: []string{"Go", "SQL"}, want: 0.0},
		{name: "all matched", matched: []string{"Go", "SQL"}, required: []string{"Go", "SQL"}, want: 1.0},
		{name: "half", matched: []string{"go"}, required: []string{"Go", "SQL"}, want: 0.5},
		{name: "nice to have ignored", matched: []string{"Go", "Terraform"}, required: []string{"Go", "SQL", "Kafka", "Redis"}, want: 0.25},
		{name: "duplicates counted once", matched: []string{"Go", "GO", "go"}, required: []string{"Go", "SQL"}, want: 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, SkillMatchRatio(tc.matched, tc.required), 1e-12)
		})
	}
}

func TestFitScore(t *testing.T) {
	r := DefaultRubric()

	assert.InDelta(t, 1.0, r.FitScore(1, 1, 1, 1), 1e-12)
	assert.InDelta(t, 0.0, r.FitScore(0, 0, 0, 0), 1e-12)
	assert.InDelta(t, 0.4*0.5+0.3*0.7+0.2*1.0+0.1*0.4, r.FitScore(0.5, 0.7, 1.0, 0.4), 1e-12)

	over := Rubric{Weights: Weights{Skills: 2}}
	assert.Equal(t, 1.0, over.FitScore(1, 0, 0, 0))
	under := Rubric{Weights: Weights{Skills: -2}}
	assert.Equal(t, 0.0, under.FitScore(1, 0, 0, 0))
}

func TestFitScoreIsDeterministic(t *testing.T) {
	r := DefaultRubric()
	first := r.FitScore(0.75, 0.7, 0.3, 0.4)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, r.FitScore(0.75, 0.7, 0.3, 0.4))
	}
}

func TestRecommendBoundaries(t *testing.T) {
	r := DefaultRubric()

	cases := []struct {
		score float64
		want  models.Recommendation
	}{
		{1.0, models.Shortlist},
		{0.75, models.Shortlist},
		{0.74999999, models.Review},
		{0.7499999999, models.Review},
		{math.Nextafter(0.75, 0), models.Review},
		{0.7499, models.Review},
		{0.50, models.Review},
		{0.4999999999, models.Reject},
		{math.Nextafter(0.5, 0), models.Reject},
		{0.4999, models.Reject},
		{0.0, models.Reject},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, r.Recommend(tc.score), "score %v", tc.score)
	}
}

func TestFitScoreSnapsDrift(t *testing.T) {
	r := DefaultRubric()

	// 3 of 5 skills: 0.24 + 0.21 + 0.2 + 0.1 sums to 0.7499999999999999 unsnapped.
	score := r.FitScore(0.6, 0.7, 1.0, 1.0)
	assert.Equal(t, 0.75, score)
	assert.Equal(t, models.Shortlist, r.Recommend(score))

	// 4 of 5 skills: 0.32 + 0.14 + 0.04 sums to 0.5000000000000001 unsnapped.
	score = r.FitScore(0.8, 0, 0.7, 0.4)
	assert.Equal(t, 0.5, score)
	assert.Equal(t, models.Review, r.Recommend(score))
}

func TestScore(t *testing.T) {
	r := DefaultRubric()
	req := models.JobRequirements{RequiredSkills: []string{"Go", "PostgreSQL", "Kubernetes", "Kafka"}}
	eval := models.CandidateEvaluation{
		MatchedSkills:        []string{"Go", "PostgreSQL", "Terraform"},
		ExperienceMatch:      1.0,
		ProductionExperience: 0.7,
		DomainFit:            0.4,
	}

	got := r.Score(eval, req)

	assert.InDelta(t, 0.5, got.SkillMatchRatio, 1e-12)
	assert.InDelta(t, 0.2+0.3+0.14+0.04, got.FitScore, 1e-12)
	assert.Equal(t, models.Review, got.Recommendation)
}

func TestRubricValidate(t *testing.T) {
	require.NoError(t, DefaultRubric().Validate())

	cases := map[string]Rubric{
		"negative weight": {Weights: Weights{Skills: 1.2, Experience: -0.2}, Thresholds: Thresholds{Shortlist: 0.75, Review: 0.5}},
		"sum below one":   {Weights: Weights{Skills: 0.4, Experience: 0.3}, Thresholds: Thresholds{Shortlist: 0.75, Review: 0.5}},
		"inverted":        {Weights: DefaultRubric().Weights, Thresholds: Thresholds{Shortlist: 0.5, Review: 0.75}},
		"out of range":    {Weights: DefaultRubric().Weights, Thresholds: Thresholds{Shortlist: 1.5, Review: 0.5}},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, r.Validate())
		})
	}
}
