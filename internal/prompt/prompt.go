// Package prompt renders the fixed instruction templates sent to the model.
package prompt

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/resume-ranker/internal/models"
)

//go:embed extraction.md
var extractionTemplate string

//go:embed evaluation.md
var evaluationTemplate string

var (
	// ErrInvalidEncoding is returned for input that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
	// ErrEmptyInput is returned for input with no visible text.
	ErrEmptyInput = errors.New("input is empty")
)

// BuildExtractionPrompt embeds jobDescription verbatim into the requirement
// extraction template.
func BuildExtractionPrompt(jobDescription string) (string, error) {
	if !utf8.ValidString(jobDescription) {
		return "", fmt.Errorf("job description: %w", ErrInvalidEncoding)
	}
	if strings.TrimSpace(jobDescription) == "" {
		return "", fmt.Errorf("job description: %w", ErrEmptyInput)
	}

	r := strings.NewReplacer("{{JOB_DESCRIPTION}}", jobDescription)
	return r.Replace(extractionTemplate), nil
}

// BuildEvaluationPrompt embeds the serialized requirements and the resume into
// the evaluation template.
func BuildEvaluationPrompt(requirements models.JobRequirements, resumeText string) (string, error) {
	if !utf8.ValidString(resumeText) {
		return "", fmt.Errorf("resume: %w", ErrInvalidEncoding)
	}
	if strings.TrimSpace(resumeText) == "" {
		return "", fmt.Errorf("resume: %w", ErrEmptyInput)
	}

	serialized, err := SerializeRequirements(requirements)
	if err != nil {
		return "", err
	}

	r := strings.NewReplacer(
		"{{JOB_REQUIREMENTS}}", serialized,
		"{{RESUME}}", resumeText,
	)
	return r.Replace(evaluationTemplate), nil
}

// SerializeRequirements is the form in which requirements appear inside the
// evaluation prompt.
func SerializeRequirements(requirements models.JobRequirements) (string, error) {
	for _, s := range append(append([]string{}, requirements.RequiredSkills...), requirements.NiceToHaveSkills...) {
		if !utf8.ValidString(s) {
			return "", fmt.Errorf("skill %q: %w", s, ErrInvalidEncoding)
		}
	}
	for _, s := range []string{requirements.JobType, requirements.Domain, string(requirements.ExperienceLevel)} {
		if !utf8.ValidString(s) {
			return "", fmt.Errorf("requirements: %w", ErrInvalidEncoding)
		}
	}

	if requirements.RequiredSkills == nil {
		requirements.RequiredSkills = []string{}
	}
	if requirements.NiceToHaveSkills == nil {
		requirements.NiceToHaveSkills = []string{}
	}

	data, err := json.MarshalIndent(requirements, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing job requirements: %w", err)
	}
	return string(data), nil
}
