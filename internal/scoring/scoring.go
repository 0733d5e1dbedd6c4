// Package scoring turns rubric sub-scores into a fit score and a tier.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spigell/resume-ranker/internal/models"
)

const (
	weightTolerance = 1e-6
	// scores are snapped to this many units per 1.0 before classification
	scorePrecision = 1e9
)

// Weights are the contributions of each component to the fit score.
type Weights struct {
	Skills     float64 `mapstructure:"skills" validate:"gte=0,lte=1"`
	Experience float64 `mapstructure:"experience" validate:"gte=0,lte=1"`
	Production float64 `mapstructure:"production" validate:"gte=0,lte=1"`
	Domain     float64 `mapstructure:"domain" validate:"gte=0,lte=1"`
}

// Thresholds are the inclusive lower bounds of the Shortlist and Review tiers.
type Thresholds struct {
	Shortlist float64 `mapstructure:"shortlist" validate:"gte=0,lte=1"`
	Review    float64 `mapstructure:"review" validate:"gte=0,lte=1"`
}

// Rubric bundles weights and thresholds.
type Rubric struct {
	Weights    Weights    `mapstructure:"weights"`
	Thresholds Thresholds `mapstructure:"thresholds"`
}

// DefaultRubric weighs skills 0.4, experience 0.3, production 0.2, domain 0.1
// and shortlists at 0.75, reviews at 0.50.
func DefaultRubric() Rubric {
	return Rubric{
		Weights:    Weights{Skills: 0.4, Experience: 0.3, Production: 0.2, Domain: 0.1},
		Thresholds: Thresholds{Shortlist: 0.75, Review: 0.50},
	}
}

// Validate checks that weights are non-negative and sum to one and that the
// thresholds are ordered inside [0, 1].
func (r Rubric) Validate() error {
	w := r.Weights
	for name, v := range map[string]float64{"skills": w.Skills, "experience": w.Experience, "production": w.Production, "domain": w.Domain} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("weight %s must not be negative, got %v", name, v)
		}
	}
	if sum := w.Skills + w.Experience + w.Production + w.Domain; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1, got %v", sum)
	}

	t := r.Thresholds
	if t.Review < 0 || t.Shortlist > 1 {
		return errors.New("thresholds must be within [0, 1]")
	}
	if t.Review > t.Shortlist {
		return fmt.Errorf("review threshold %v is above shortlist threshold %v", t.Review, t.Shortlist)
	}
	return nil
}

// SkillMatchRatio is the share of required skills found in matched. An empty
// requirement set is trivially satisfied.
func SkillMatchRatio(matched, required []string) float64 {
	unique := make(map[string]struct{}, len(required))
	for _, s := range required {
		if key := normalize(s); key != "" {
			unique[key] = struct{}{}
		}
	}
	if len(unique) == 0 {
		return 1.0
	}

	hit := make(map[string]struct{}, len(matched))
	for _, s := range matched {
		key := normalize(s)
		if _, ok := unique[key]; ok {
			hit[key] = struct{}{}
		}
	}
	return float64(len(hit)) / float64(len(unique))
}

// FitScore is the weighted sum of the components, clamped to [0, 1]. The sum
// is snapped to 1e-9 so that 0.4 + 0.21 + 0.14 is exactly 0.75.
func (r Rubric) FitScore(skillRatio, experience, production, domain float64) float64 {
	w := r.Weights
	score := skillRatio*w.Skills + experience*w.Experience + production*w.Production + domain*w.Domain
	score = math.Round(score*scorePrecision) / scorePrecision
	return math.Max(0, math.Min(1, score))
}

// Recommend maps a fit score to a tier. Lower bounds are inclusive and exact.
func (r Rubric) Recommend(score float64) models.Recommendation {
	switch {
	case score >= r.Thresholds.Shortlist:
		return models.Shortlist
	case score >= r.Thresholds.Review:
		return models.Review
	default:
		return models.Reject
	}
}

// Score derives the FitScoreResult of an evaluation.
func (r Rubric) Score(evaluation models.CandidateEvaluation, requirements models.JobRequirements) models.FitScoreResult {
	ratio := SkillMatchRatio(evaluation.MatchedSkills, requirements.RequiredSkills)
	fit := r.FitScore(ratio, evaluation.ExperienceMatch, evaluation.ProductionExperience, evaluation.DomainFit)
	return models.FitScoreResult{
		SkillMatchRatio: ratio,
		FitScore:        fit,
		Recommendation:  r.Recommend(fit),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
