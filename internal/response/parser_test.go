package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-ranker/internal/models"
	"github.com/spigell/resume-ranker/internal/prompt"
)

const validEvaluation = `{
  "candidate_name": "Jane Doe",
  "matched_skills": ["go", "PostgreSQL", "Terraform"],
  "missing_skills": ["Kubernetes"],
  "experience_match": 0.7,
  "production_experience": 1.0,
  "domain_fit": 0.4,
  "summary": "Solid backend engineer."
}`

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser()
	require.NoError(t, err)
	return p
}

func requirements() models.JobRequirements {
	return models.JobRequirements{
		RequiredSkills:   []string{"Go", "PostgreSQL", "Kubernetes"},
		NiceToHaveSkills: []string{"Terraform"},
		ExperienceLevel:  models.LevelSenior,
	}
}

func TestParseLocatesJSON(t *testing.T) {
	p := newParser(t)

	cases := map[string]string{
		"bare":          validEvaluation,
		"fenced":        "```json\n" + validEvaluation + "\n```",
		"prose":         "Sure! Here is the evaluation:\n" + validEvaluation + "\nLet me know {if} you need more.",
		"braces before": "Result {draft} follows: " + validEvaluation,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := p.Parse(raw, p.evaluation)
			require.NoError(t, err)
			assert.Equal(t, EvaluationSchemaName, doc.Schema)
			assert.Equal(t, "Jane Doe", doc.Value["candidate_name"])
		})
	}
}

func TestParseErrorKinds(t *testing.T) {
	p := newParser(t)

	cases := []struct {
		name string
		raw  string
		want models.ErrorKind
	}{
		{name: "empty", raw: "", want: models.KindNoJSONFound},
		{name: "prose only", raw: "I cannot evaluate this resume.", want: models.KindNoJSONFound},
		{name: "unbalanced", raw: `{"candidate_name": "Jane"`, want: models.KindNoJSONFound},
		{name: "trailing comma", raw: `{"candidate_name": "Jane",}`, want: models.KindMalformedJSON},
		{name: "single quotes", raw: `{'candidate_name': 'Jane'}`, want: models.KindMalformedJSON},
		{
			name: "missing experience_match",
			raw:  `{"candidate_name":"J","matched_skills":[],"missing_skills":[],"production_experience":0.3,"domain_fit":0.0}`,
			want: models.KindSchemaViolation,
		},
		{
			name: "string score",
			raw:  `{"candidate_name":"J","matched_skills":[],"missing_skills":[],"experience_match":"0.7","production_experience":0.3,"domain_fit":0.0}`,
			want: models.KindSchemaViolation,
		},
		{
			name: "interpolated bucket",
			raw:  `{"candidate_name":"J","matched_skills":[],"missing_skills":[],"experience_match":0.5,"production_experience":0.3,"domain_fit":0.0}`,
			want: models.KindValueDomain,
		},
		{
			name: "domain fit uses experience bucket",
			raw:  `{"candidate_name":"J","matched_skills":[],"missing_skills":[],"experience_match":0.3,"production_experience":0.3,"domain_fit":0.3}`,
			want: models.KindValueDomain,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse(tc.raw, p.evaluation)
			require.Error(t, err)
			assert.Equal(t, tc.want, models.KindOf(err), err.Error())
		})
	}
}

func TestParseRejectsHalfBucketWithValueDomainError(t *testing.T) {
	p := newParser(t)
	raw := `{"candidate_name":"J","matched_skills":[],"missing_skills":[],"experience_match":0.5,"production_experience":0.3,"domain_fit":0.0}`

	_, err := p.DecodeEvaluation(raw, requirements(), "a.txt")

	var domainErr *ValueDomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, []string{"/experience_match"}, domainErr.Fields)
}

func TestParseMissingFieldNamesField(t *testing.T) {
	p := newParser(t)
	raw := `{"candidate_name":"J","matched_skills":[],"missing_skills":[],"production_experience":0.3,"domain_fit":0.0}`

	_, err := p.DecodeEvaluation(raw, requirements(), "a.txt")

	var schemaErr *SchemaViolationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"/experience_match"}, schemaErr.Fields)
	assert.Contains(t, schemaErr.Error(), "experience_match")
}

func TestDecodeEvaluation(t *testing.T) {
	p := newParser(t)

	eval, err := p.DecodeEvaluation(validEvaluation, requirements(), "jane.txt")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", eval.CandidateName)
	assert.Equal(t, "jane.txt", eval.SourceFileID)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Terraform"}, eval.MatchedSkills)
	assert.Equal(t, []string{"Kubernetes"}, eval.MissingSkills)
	assert.Equal(t, 0.7, eval.ExperienceMatch)
	assert.Equal(t, 1.0, eval.ProductionExperience)
	assert.Equal(t, 0.4, eval.DomainFit)
	assert.Equal(t, "Solid backend engineer.", eval.Summary)
}

// modelAnswer renders an evaluation the way the evaluation prompt asks the
// model to answer, wrapped in a fenced block with some chatter around it.
func modelAnswer(t *testing.T, e models.CandidateEvaluation) string {
	t.Helper()
	data, err := json.MarshalIndent(map[string]any{
		"candidate_name":        e.CandidateName,
		"matched_skills":        e.MatchedSkills,
		"missing_skills":        e.MissingSkills,
		"experience_match":      e.ExperienceMatch,
		"production_experience": e.ProductionExperience,
		"domain_fit":            e.DomainFit,
		"summary":               e.Summary,
	}, "", "  ")
	require.NoError(t, err)
	return "Here is my assessment:\n```json\n" + string(data) + "\n```\nLet me know if you need more."
}

func TestDecodeEvaluationRoundTrip(t *testing.T) {
	p := newParser(t)
	years := 4.0
	req := models.JobRequirements{
		RequiredSkills:   []string{"Go", "PostgreSQL", "Kubernetes", "Kafka"},
		NiceToHaveSkills: []string{"Terraform", "gRPC"},
		ExperienceLevel:  models.LevelStaff,
		RequiredYears:    &years,
		JobType:          "Platform Engineering",
		Domain:           "Payments",
	}

	// The evaluator only ever sees requirements in their serialized form.
	serialized, err := prompt.SerializeRequirements(req)
	require.NoError(t, err)
	var seen models.JobRequirements
	require.NoError(t, json.Unmarshal([]byte(serialized), &seen))
	require.Equal(t, req, seen)

	cases := map[string]models.CandidateEvaluation{
		"strong": {
			CandidateName:        "Ada Lovelace",
			SourceFileID:         "ada.txt",
			MatchedSkills:        []string{"Go", "Kubernetes", "Kafka", "gRPC"},
			MissingSkills:        []string{"PostgreSQL"},
			ExperienceMatch:      1.0,
			ProductionExperience: 0.7,
			DomainFit:            0.4,
			Summary:              "Runs Go services on Kubernetes; no PostgreSQL.",
		},
		"weak": {
			CandidateName:        "Grace Hopper",
			SourceFileID:         "grace.txt",
			MatchedSkills:        []string{},
			MissingSkills:        []string{"Go", "PostgreSQL", "Kubernetes", "Kafka"},
			ExperienceMatch:      0.3,
			ProductionExperience: 0.0,
			DomainFit:            0.0,
			Summary:              "Mainframe background, none of the stack.",
		},
	}

	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := p.DecodeEvaluation(modelAnswer(t, want), seen, want.SourceFileID)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeEvaluationAcceptsEquivalentNumbers(t *testing.T) {
	p := newParser(t)
	raw := `{"candidate_name":"J","matched_skills":[],"missing_skills":[],"experience_match":0.70,"production_experience":1,"domain_fit":0}`

	eval, err := p.DecodeEvaluation(raw, requirements(), "j.txt")
	require.NoError(t, err)
	assert.Equal(t, 0.7, eval.ExperienceMatch)
	assert.Equal(t, 1.0, eval.ProductionExperience)
	assert.Equal(t, 0.0, eval.DomainFit)
}

func TestDecodeEvaluationSkillInvariants(t *testing.T) {
	p := newParser(t)

	cases := map[string]string{
		"matched outside requirements": `{"candidate_name":"J","matched_skills":["Rust"],"missing_skills":[],"experience_match":0.7,"production_experience":0.7,"domain_fit":0.7}`,
		"missing nice to have":         `{"candidate_name":"J","matched_skills":[],"missing_skills":["Terraform"],"experience_match":0.7,"production_experience":0.7,"domain_fit":0.7}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.DecodeEvaluation(raw, requirements(), "j.txt")
			assert.Equal(t, models.KindValueDomain, models.KindOf(err))
		})
	}
}

func TestDecodeRequirements(t *testing.T) {
	p := newParser(t)
	raw := "```json\n" + `{
  "required_skills": ["Go", "PostgreSQL", "go"],
  "nice_to_have_skills": ["Terraform"],
  "experience": {"required_years": 5, "seniority_label": "Senior"},
  "job_type": "Backend Engineering",
  "domain": "Healthcare"
}` + "\n```"

	req, err := p.DecodeRequirements(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "PostgreSQL"}, req.RequiredSkills)
	assert.Equal(t, []string{"Terraform"}, req.NiceToHaveSkills)
	assert.Equal(t, models.LevelSenior, req.ExperienceLevel)
	require.NotNil(t, req.RequiredYears)
	assert.Equal(t, 5.0, *req.RequiredYears)
	assert.Equal(t, "Backend Engineering", req.JobType)
	assert.Equal(t, "Healthcare", req.Domain)
}

func TestDecodeRequirementsOptionalExperience(t *testing.T) {
	p := newParser(t)

	req, err := p.DecodeRequirements(`{"required_skills":["Go"],"experience":{"required_years":null,"seniority_label":null}}`)
	require.NoError(t, err)
	assert.Equal(t, models.LevelUnknown, req.ExperienceLevel)
	assert.Nil(t, req.RequiredYears)
	assert.Empty(t, req.NiceToHaveSkills)
}

func TestDecodeRequirementsRejects(t *testing.T) {
	p := newParser(t)

	cases := []struct {
		name string
		raw  string
		want models.ErrorKind
	}{
		{name: "no required skills", raw: `{"required_skills":[]}`, want: models.KindSchemaViolation},
		{name: "missing required skills", raw: `{"nice_to_have_skills":["Go"]}`, want: models.KindSchemaViolation},
		{name: "blank required skill", raw: `{"required_skills":["  "],"nice_to_have_skills":["Go"]}`, want: models.KindSchemaViolation},
		{name: "only blank required skills", raw: `{"required_skills":[" ","\t"]}`, want: models.KindSchemaViolation},
		{name: "unknown seniority", raw: `{"required_skills":["Go"],"experience":{"seniority_label":"Mid"}}`, want: models.KindValueDomain},
		{name: "negative years", raw: `{"required_skills":["Go"],"experience":{"required_years":-1}}`, want: models.KindValueDomain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.DecodeRequirements(tc.raw)
			assert.Equal(t, tc.want, models.KindOf(err), "%v", err)
		})
	}
}

func TestCompileSchemaRejectsInvalidDocument(t *testing.T) {
	_, err := CompileSchema("broken.json", []byte(`{"type": 12}`))
	require.Error(t, err)
}
