// Package models holds the data shared by every stage of a ranking run.
package models

import (
	"strings"
	"time"
)

// ExperienceLevel is the seniority a job asks for.
type ExperienceLevel string

const (
	LevelUnknown   ExperienceLevel = "Unknown"
	LevelJunior    ExperienceLevel = "Junior"
	LevelSenior    ExperienceLevel = "Senior"
	LevelStaff     ExperienceLevel = "Staff"
	LevelPrincipal ExperienceLevel = "Principal"
)

// ExperienceLevels lists the labels a model may return, in ascending seniority.
var ExperienceLevels = []ExperienceLevel{LevelJunior, LevelSenior, LevelStaff, LevelPrincipal}

// Recommendation is the tier derived from a fit score.
type Recommendation string

const (
	Shortlist Recommendation = "Shortlist"
	Review    Recommendation = "Review"
	Reject    Recommendation = "Reject"
)

// Permitted bucket values per rubric. Domain fit uses 0.4 for weak alignment
// while the other two rubrics use 0.3.
var (
	ExperienceBuckets = []float64{0.0, 0.3, 0.7, 1.0}
	ProductionBuckets = []float64{0.0, 0.3, 0.7, 1.0}
	DomainBuckets     = []float64{0.0, 0.4, 0.7, 1.0}
)

// JobRequirements is extracted once per run and shared read-only by all evaluations.
type JobRequirements struct {
	RequiredSkills   []string        `json:"required_skills" yaml:"required_skills"`
	NiceToHaveSkills []string        `json:"nice_to_have_skills" yaml:"nice_to_have_skills"`
	ExperienceLevel  ExperienceLevel `json:"experience_level" yaml:"experience_level"`
	RequiredYears    *float64        `json:"required_years,omitempty" yaml:"required_years,omitempty"`
	JobType          string          `json:"job_type" yaml:"job_type"`
	Domain           string          `json:"domain" yaml:"domain"`
}

// Requires reports whether skill is one of the required skills, ignoring case.
func (r JobRequirements) Requires(skill string) bool {
	return containsFold(r.RequiredSkills, skill)
}

// Canonical returns the requirement spelling of skill, looking at required
// skills first and nice-to-have skills second.
func (r JobRequirements) Canonical(skill string) (string, bool) {
	if s, ok := lookupFold(r.RequiredSkills, skill); ok {
		return s, true
	}
	return lookupFold(r.NiceToHaveSkills, skill)
}

// CandidateEvaluation is the validated verdict for one resume.
type CandidateEvaluation struct {
	CandidateName        string   `json:"candidate_name" yaml:"candidate_name"`
	SourceFileID         string   `json:"file_name" yaml:"file_name"`
	MatchedSkills        []string `json:"matched_skills" yaml:"matched_skills"`
	MissingSkills        []string `json:"missing_skills" yaml:"missing_skills"`
	ExperienceMatch      float64  `json:"experience_match" yaml:"experience_match"`
	ProductionExperience float64  `json:"production_experience" yaml:"production_experience"`
	DomainFit            float64  `json:"domain_fit" yaml:"domain_fit"`
	Summary              string   `json:"explanation" yaml:"explanation"`
}

// FitScoreResult is derived from a CandidateEvaluation by the score aggregator.
type FitScoreResult struct {
	SkillMatchRatio float64        `json:"skill_match_ratio" yaml:"skill_match_ratio"`
	FitScore        float64        `json:"fit_score" yaml:"fit_score"`
	Recommendation  Recommendation `json:"recommendation" yaml:"recommendation"`
}

// FailureRecord marks a slot that could not be evaluated.
type FailureRecord struct {
	Kind     ErrorKind `json:"kind" yaml:"kind"`
	Attempts int       `json:"attempts" yaml:"attempts"`
	Retries  int       `json:"retries" yaml:"retries"`
	Message  string    `json:"message,omitempty" yaml:"message,omitempty"`
}

// Resume is one candidate input.
type Resume struct {
	FileID string
	Text   string
}

// Entry is one slot of a BatchReport. Exactly one of Evaluation or Failure is set.
type Entry struct {
	FileID     string               `json:"file_name" yaml:"file_name"`
	Evaluation *CandidateEvaluation `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
	Score      *FitScoreResult      `json:"score,omitempty" yaml:"score,omitempty"`
	Failure    *FailureRecord       `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Failed reports whether the slot holds a failure marker.
func (e Entry) Failed() bool { return e.Failure != nil }

// BatchState is the lifecycle state of a run.
type BatchState string

const (
	StatePending                BatchState = "pending"
	StateExtractingRequirements BatchState = "extracting_requirements"
	StateEvaluatingCandidates   BatchState = "evaluating_candidates"
	StateCompleted              BatchState = "completed"
	StateExtractionFailed       BatchState = "extraction_failed"
	StateAborted                BatchState = "aborted"
)

// Terminal reports whether no further transitions are possible.
func (s BatchState) Terminal() bool {
	switch s {
	case StateCompleted, StateExtractionFailed, StateAborted:
		return true
	default:
		return false
	}
}

// BatchReport is the ordered outcome of a run, one entry per input resume.
type BatchReport struct {
	RunID             string           `json:"run_id" yaml:"run_id"`
	Model             string           `json:"model" yaml:"model"`
	State             BatchState       `json:"state" yaml:"state"`
	StartedAt         time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time        `json:"finished_at" yaml:"finished_at"`
	JobRequirements   *JobRequirements `json:"job_requirements,omitempty" yaml:"job_requirements,omitempty"`
	ExtractionFailure *FailureRecord   `json:"extraction_failure,omitempty" yaml:"extraction_failure,omitempty"`
	Entries           []Entry          `json:"candidates" yaml:"candidates"`
}

// Counts returns how many entries landed in each tier plus the failure count.
func (b *BatchReport) Counts() (tiers map[Recommendation]int, failed int) {
	tiers = map[Recommendation]int{Shortlist: 0, Review: 0, Reject: 0}
	for _, e := range b.Entries {
		if e.Failed() || e.Score == nil {
			failed++
			continue
		}
		tiers[e.Score.Recommendation]++
	}
	return tiers, failed
}

func containsFold(list []string, s string) bool {
	_, ok := lookupFold(list, s)
	return ok
}

func lookupFold(list []string, s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), s) {
			return item, true
		}
	}
	return "", false
}
