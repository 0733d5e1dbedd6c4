package cmd

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/spigell/resume-ranker/internal/ai/gemini"
	"github.com/spigell/resume-ranker/internal/ai/ollama"
	"github.com/spigell/resume-ranker/internal/export"
	"github.com/spigell/resume-ranker/internal/retry"
	"github.com/spigell/resume-ranker/internal/scoring"
)

const (
	backendOllama = "ollama"
	backendGemini = "gemini"
)

type Config struct {
	Backend                  string         `mapstructure:"backend" validate:"oneof=ollama gemini"`
	Model                    string         `mapstructure:"model" validate:"required"`
	Temperature              float64        `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Timeout                  time.Duration  `mapstructure:"timeout" validate:"gt=0"`
	MaxConcurrentEvaluations int            `mapstructure:"max-concurrent-evaluations" validate:"gte=1,lte=64"`
	CandidateTimeout         time.Duration  `mapstructure:"candidate-timeout" validate:"gte=0"`
	MaxLogLength             int            `mapstructure:"max-log-length" validate:"gte=0"`
	MetricsAddr              string         `mapstructure:"metrics-addr" validate:"omitempty,hostname_port"`
	Retry                    retry.Policy   `mapstructure:"retry"`
	Scoring                  scoring.Rubric `mapstructure:"scoring"`
	Output                   OutputConfig   `mapstructure:"output"`
	Ollama                   OllamaConfig   `mapstructure:"ollama"`
	Gemini                   GeminiConfig   `mapstructure:"gemini"`
}

type OutputConfig struct {
	Dir     string   `mapstructure:"dir" validate:"required"`
	Formats []string `mapstructure:"formats" validate:"dive,oneof=json yaml xlsx markdown md html"`
	Table   bool     `mapstructure:"table"`
}

type OllamaConfig struct {
	Host       string  `mapstructure:"host" validate:"omitempty,url"`
	TopP       float64 `mapstructure:"top-p" validate:"gte=0,lte=1"`
	NumContext int     `mapstructure:"num-ctx" validate:"gte=0"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Backend    string `mapstructure:"backend" validate:"omitempty,oneof=gemini-api vertex"`
	Project    string `mapstructure:"project"`
	Location   string `mapstructure:"location"`
}

func setDefaults(v *viper.Viper) {
	policy := retry.DefaultPolicy()
	rubric := scoring.DefaultRubric()

	v.SetDefault("backend", backendOllama)
	v.SetDefault("model", "gemma3:27b")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("timeout", 2*time.Minute)
	v.SetDefault("max-concurrent-evaluations", 2)
	v.SetDefault("candidate-timeout", 10*time.Minute)
	v.SetDefault("max-log-length", 200)
	v.SetDefault("metrics-addr", "")

	v.SetDefault("retry.max-attempts", policy.MaxAttempts)
	v.SetDefault("retry.backoff.initial", policy.Backoff.Initial)
	v.SetDefault("retry.backoff.multiplier", policy.Backoff.Multiplier)
	v.SetDefault("retry.backoff.max", policy.Backoff.Max)

	v.SetDefault("scoring.weights.skills", rubric.Weights.Skills)
	v.SetDefault("scoring.weights.experience", rubric.Weights.Experience)
	v.SetDefault("scoring.weights.production", rubric.Weights.Production)
	v.SetDefault("scoring.weights.domain", rubric.Weights.Domain)
	v.SetDefault("scoring.thresholds.shortlist", rubric.Thresholds.Shortlist)
	v.SetDefault("scoring.thresholds.review", rubric.Thresholds.Review)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.formats", []string{string(export.FormatJSON)})
	v.SetDefault("output.table", true)

	v.SetDefault("ollama.host", ollama.DefaultHost)
	v.SetDefault("ollama.top-p", 0.9)
	v.SetDefault("ollama.num-ctx", 8192)

	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.api-key-file", "")
	v.SetDefault("gemini.backend", gemini.APIBackend)
	v.SetDefault("gemini.project", "")
	v.SetDefault("gemini.location", "")
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, fmt.Errorf("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := config.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("validating retry policy: %w", err)
	}
	if err := config.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("validating scoring rubric: %w", err)
	}

	return config, nil
}
