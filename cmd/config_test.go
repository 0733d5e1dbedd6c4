package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-ranker/internal/retry"
	"github.com/spigell/resume-ranker/internal/scoring"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestGetConfigDefaults(t *testing.T) {
	cfg, err := getConfig(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, backendOllama, cfg.Backend)
	assert.Equal(t, "gemma3:27b", cfg.Model)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxConcurrentEvaluations)
	assert.Equal(t, retry.DefaultPolicy(), cfg.Retry)
	assert.Equal(t, scoring.DefaultRubric(), cfg.Scoring)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)
	assert.Equal(t, 8192, cfg.Ollama.NumContext)
}

func TestGetConfigOverrides(t *testing.T) {
	v := newTestViper()
	v.Set("backend", "gemini")
	v.Set("model", "gemini-2.5-flash")
	v.Set("timeout", "45s")
	v.Set("retry.backoff.initial", "250ms")
	v.Set("scoring.weights.skills", 0.5)
	v.Set("scoring.weights.domain", 0.0)
	v.Set("output.formats", []string{"json", "xlsx"})

	cfg, err := getConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Backend)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Backoff.Initial)
	assert.Equal(t, 0.5, cfg.Scoring.Weights.Skills)
	assert.Equal(t, []string{"json", "xlsx"}, cfg.Output.Formats)
}

func TestGetConfigValidation(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"unknown backend":    func(v *viper.Viper) { v.Set("backend", "openai") },
		"empty model":        func(v *viper.Viper) { v.Set("model", "") },
		"zero workers":       func(v *viper.Viper) { v.Set("max-concurrent-evaluations", 0) },
		"zero attempts":      func(v *viper.Viper) { v.Set("retry.max-attempts", 0) },
		"weights off":        func(v *viper.Viper) { v.Set("scoring.weights.skills", 0.9) },
		"inverted tiers":     func(v *viper.Viper) { v.Set("scoring.thresholds.review", 0.9) },
		"bad format":         func(v *viper.Viper) { v.Set("output.formats", []string{"pdf"}) },
		"bad metrics addr":   func(v *viper.Viper) { v.Set("metrics-addr", "nope") },
		"bad gemini backend": func(v *viper.Viper) { v.Set("gemini.backend", "openai") },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := newTestViper()
			mutate(v)
			_, err := getConfig(v)
			assert.Error(t, err)
		})
	}
}
