package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/manifoldco/promptui"

	"github.com/spigell/resume-ranker/internal/ai"
	"github.com/spigell/resume-ranker/internal/ai/gemini"
	"github.com/spigell/resume-ranker/internal/ai/ollama"
	"github.com/spigell/resume-ranker/internal/secrets"
)

// newBackend builds the configured inference backend.
func newBackend(ctx context.Context, cfg *Config) (ai.Backend, error) {
	switch cfg.Backend {
	case backendOllama:
		return ollama.New(ollama.Config{
			Host:       cfg.Ollama.Host,
			TopP:       cfg.Ollama.TopP,
			NumContext: cfg.Ollama.NumContext,
		})
	case backendGemini:
		geminiCfg := gemini.Config{
			Backend:  cfg.Gemini.Backend,
			Project:  cfg.Gemini.Project,
			Location: cfg.Gemini.Location,
		}
		if cfg.Gemini.Backend != gemini.VertexBackend {
			apiKey, err := secrets.Load(secrets.Source{
				Name:  "gemini api key",
				Value: cfg.Gemini.APIKey,
				File:  cfg.Gemini.APIKeyFile,
				Env:   "GEMINI_API_KEY",
			})
			if err != nil {
				return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY)", err)
			}
			geminiCfg.APIKey = apiKey
		}
		return gemini.NewGenerator(ctx, geminiCfg)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

func listModels(ctx context.Context, backend ai.Backend) ([]string, error) {
	lister, ok := backend.(ai.ModelLister)
	if !ok {
		return nil, fmt.Errorf("%s backend cannot list models", backend.Name())
	}

	names, err := lister.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// pickModel asks the user to choose one of the installed models.
func pickModel(ctx context.Context, backend ai.Backend, current string) (string, error) {
	names, err := listModels(ctx, backend)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", errors.New("no models available on the backend")
	}

	cursor := 0
	for i, n := range names {
		if n == current {
			cursor = i
		}
	}

	modelPrompt := promptui.Select{
		Label:     "Choose a model and press ENTER",
		Items:     names,
		CursorPos: cursor,
		Size:      10,
	}

	_, selected, err := modelPrompt.Run()
	if err != nil {
		return "", err
	}
	return selected, nil
}
