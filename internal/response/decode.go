package response

import (
	"fmt"
	"strings"

	"github.com/spigell/resume-ranker/internal/models"
)

type requirementsPayload struct {
	RequiredSkills   []string `mapstructure:"required_skills"`
	NiceToHaveSkills []string `mapstructure:"nice_to_have_skills"`
	Experience       struct {
		RequiredYears  *float64 `mapstructure:"required_years"`
		SeniorityLabel string   `mapstructure:"seniority_label"`
	} `mapstructure:"experience"`
	JobType string `mapstructure:"job_type"`
	Domain  string `mapstructure:"domain"`
}

type evaluationPayload struct {
	CandidateName        string   `mapstructure:"candidate_name"`
	MatchedSkills        []string `mapstructure:"matched_skills"`
	MissingSkills        []string `mapstructure:"missing_skills"`
	ExperienceMatch      float64  `mapstructure:"experience_match"`
	ProductionExperience float64  `mapstructure:"production_experience"`
	DomainFit            float64  `mapstructure:"domain_fit"`
	Summary              string   `mapstructure:"summary"`
}

// DecodeRequirements parses and validates a requirement extraction answer.
func (p *Parser) DecodeRequirements(raw string) (models.JobRequirements, error) {
	doc, err := p.Parse(raw, p.requirements)
	if err != nil {
		return models.JobRequirements{}, err
	}

	var payload requirementsPayload
	if err := decode(doc.Value, &payload); err != nil {
		return models.JobRequirements{}, &SchemaViolationError{Schema: doc.Schema, Fields: []string{"/"}, Details: []string{err.Error()}}
	}

	required := uniqueSkills(payload.RequiredSkills)
	if len(required) == 0 {
		return models.JobRequirements{}, &SchemaViolationError{
			Schema:  doc.Schema,
			Fields:  []string{"/required_skills"},
			Details: []string{"required_skills holds only blank entries"},
		}
	}

	level := models.ExperienceLevel(payload.Experience.SeniorityLabel)
	if level == "" {
		level = models.LevelUnknown
	}

	return models.JobRequirements{
		RequiredSkills:   required,
		NiceToHaveSkills: uniqueSkills(payload.NiceToHaveSkills),
		ExperienceLevel:  level,
		RequiredYears:    payload.Experience.RequiredYears,
		JobType:          strings.TrimSpace(payload.JobType),
		Domain:           strings.TrimSpace(payload.Domain),
	}, nil
}

// DecodeEvaluation parses and validates a candidate evaluation answer for the
// resume identified by fileID. Skills are mapped to the requirement spelling;
// a matched skill outside the requirements, or a missing skill that is not
// required, is a ValueDomainError.
func (p *Parser) DecodeEvaluation(raw string, requirements models.JobRequirements, fileID string) (models.CandidateEvaluation, error) {
	doc, err := p.Parse(raw, p.evaluation)
	if err != nil {
		return models.CandidateEvaluation{}, err
	}

	var payload evaluationPayload
	if err := decode(doc.Value, &payload); err != nil {
		return models.CandidateEvaluation{}, &SchemaViolationError{Schema: doc.Schema, Fields: []string{"/"}, Details: []string{err.Error()}}
	}

	domainErr := &ValueDomainError{Schema: doc.Schema}

	matched := make([]string, 0, len(payload.MatchedSkills))
	for _, skill := range uniqueSkills(payload.MatchedSkills) {
		canonical, ok := requirements.Canonical(skill)
		if !ok {
			domainErr.Details = append(domainErr.Details, fmt.Sprintf("matched skill %q is not in the job requirements", skill))
			continue
		}
		matched = appendUnique(matched, canonical)
	}
	if len(domainErr.Details) > 0 {
		domainErr.Fields = append(domainErr.Fields, "/matched_skills")
	}

	missing := make([]string, 0, len(payload.MissingSkills))
	var missingBad bool
	for _, skill := range uniqueSkills(payload.MissingSkills) {
		if !requirements.Requires(skill) {
			domainErr.Details = append(domainErr.Details, fmt.Sprintf("missing skill %q is not a required skill", skill))
			missingBad = true
			continue
		}
		canonical, _ := requirements.Canonical(skill)
		missing = appendUnique(missing, canonical)
	}
	if missingBad {
		domainErr.Fields = append(domainErr.Fields, "/missing_skills")
	}

	if len(domainErr.Fields) > 0 {
		return models.CandidateEvaluation{}, domainErr
	}

	return models.CandidateEvaluation{
		CandidateName:        strings.TrimSpace(payload.CandidateName),
		SourceFileID:         fileID,
		MatchedSkills:        matched,
		MissingSkills:        missing,
		ExperienceMatch:      payload.ExperienceMatch,
		ProductionExperience: payload.ProductionExperience,
		DomainFit:            payload.DomainFit,
		Summary:              strings.TrimSpace(payload.Summary),
	}, nil
}

func uniqueSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = appendUnique(out, s)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return list
		}
	}
	return append(list, s)
}
