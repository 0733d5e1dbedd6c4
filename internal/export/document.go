// Package export writes batch reports as JSON, YAML, Excel, Markdown, HTML and
// console tables.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spigell/resume-ranker/internal/models"
)

// Summary counts candidates per tier.
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Shortlist int `json:"shortlist" yaml:"shortlist"`
	Review    int `json:"review" yaml:"review"`
	Reject    int `json:"reject" yaml:"reject"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Candidate is one flattened report row.
type Candidate struct {
	Rank                 int                   `json:"rank,omitempty" yaml:"rank,omitempty"`
	FileName             string                `json:"file_name" yaml:"file_name"`
	CandidateName        string                `json:"candidate_name,omitempty" yaml:"candidate_name,omitempty"`
	FitScore             *float64              `json:"fit_score,omitempty" yaml:"fit_score,omitempty"`
	SkillMatchRatio      *float64              `json:"skill_match_ratio,omitempty" yaml:"skill_match_ratio,omitempty"`
	Recommendation       models.Recommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	MatchedSkills        []string              `json:"matched_skills,omitempty" yaml:"matched_skills,omitempty"`
	MissingSkills        []string              `json:"missing_skills,omitempty" yaml:"missing_skills,omitempty"`
	ExperienceMatch      *float64              `json:"experience_match,omitempty" yaml:"experience_match,omitempty"`
	ProductionExperience *float64              `json:"production_experience,omitempty" yaml:"production_experience,omitempty"`
	DomainFit            *float64              `json:"domain_fit,omitempty" yaml:"domain_fit,omitempty"`
	Explanation          string                `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Failure              *models.FailureRecord `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Document is the serialized form of a BatchReport. Candidates keep input
// order; Rank gives the position in the fit score ranking.
type Document struct {
	RunID             string                  `json:"run_id" yaml:"run_id"`
	Model             string                  `json:"model" yaml:"model"`
	State             models.BatchState       `json:"state" yaml:"state"`
	StartedAt         time.Time               `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time               `json:"finished_at" yaml:"finished_at"`
	JobRequirements   *models.JobRequirements `json:"job_requirements,omitempty" yaml:"job_requirements,omitempty"`
	ExtractionFailure *models.FailureRecord   `json:"extraction_failure,omitempty" yaml:"extraction_failure,omitempty"`
	Summary           Summary                 `json:"summary" yaml:"summary"`
	Candidates        []Candidate             `json:"candidates" yaml:"candidates"`
}

// NewDocument flattens report.
func NewDocument(report *models.BatchReport) Document {
	tiers, failed := report.Counts()
	doc := Document{
		RunID:             report.RunID,
		Model:             report.Model,
		State:             report.State,
		StartedAt:         report.StartedAt,
		FinishedAt:        report.FinishedAt,
		JobRequirements:   report.JobRequirements,
		ExtractionFailure: report.ExtractionFailure,
		Summary: Summary{
			Total:     len(report.Entries),
			Shortlist: tiers[models.Shortlist],
			Review:    tiers[models.Review],
			Reject:    tiers[models.Reject],
			Failed:    failed,
		},
		Candidates: make([]Candidate, len(report.Entries)),
	}

	ranks := make(map[int]int, len(report.Entries))
	for rank, idx := range rankedIndexes(report.Entries) {
		ranks[idx] = rank + 1
	}

	for i, e := range report.Entries {
		c := Candidate{FileName: e.FileID, Rank: ranks[i], Failure: e.Failure}
		if e.Evaluation != nil {
			ev := e.Evaluation
			c.CandidateName = ev.CandidateName
			c.MatchedSkills = ev.MatchedSkills
			c.MissingSkills = ev.MissingSkills
			c.ExperienceMatch = float(ev.ExperienceMatch)
			c.ProductionExperience = float(ev.ProductionExperience)
			c.DomainFit = float(ev.DomainFit)
			c.Explanation = ev.Summary
		}
		if e.Score != nil {
			c.FitScore = float(e.Score.FitScore)
			c.SkillMatchRatio = float(e.Score.SkillMatchRatio)
			c.Recommendation = e.Score.Recommendation
		}
		doc.Candidates[i] = c
	}

	return doc
}

// Ranked returns the scored candidates ordered by fit score, best first. Ties
// keep input order.
func (d Document) Ranked() []Candidate {
	out := make([]Candidate, 0, len(d.Candidates))
	for _, c := range d.Candidates {
		if c.Rank > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// Failed returns the candidates that could not be evaluated, in input order.
func (d Document) Failed() []Candidate {
	var out []Candidate
	for _, c := range d.Candidates {
		if c.Failure != nil {
			out = append(out, c)
		}
	}
	return out
}

func rankedIndexes(entries []models.Entry) []int {
	idx := make([]int, 0, len(entries))
	for i, e := range entries {
		if e.Score != nil && e.Failure == nil {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return entries[idx[a]].Score.FitScore > entries[idx[b]].Score.FitScore
	})
	return idx
}

func float(v float64) *float64 { return &v }

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, report *models.BatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(report)); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// WriteYAML writes the document as YAML.
func WriteYAML(w io.Writer, report *models.BatchReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(report)); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}
	return nil
}
