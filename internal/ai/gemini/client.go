// Package gemini is the Google Gemini backend of the model gateway.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/resume-ranker/internal/ai"
)

const (
	backendName = "gemini"

	// APIBackend selects the Gemini Developer API.
	APIBackend = "gemini-api"
	// VertexBackend selects Vertex AI.
	VertexBackend = "vertex"
)

// Config selects the Gemini endpoint.
type Config struct {
	APIKey   string
	Backend  string
	Project  string
	Location string
}

type modelsService interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type modelCatalog interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Generator wraps the Google GenAI client.
type Generator struct {
	models  modelsService
	catalog modelCatalog
}

var _ ai.Backend = (*Generator)(nil)

// NewGenerator creates a Generator for the configured Gemini endpoint.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	clientCfg := &genai.ClientConfig{}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", APIBackend:
		apiKey := strings.TrimSpace(cfg.APIKey)
		if apiKey == "" {
			return nil, errors.New("gemini api key is required")
		}
		clientCfg.APIKey = apiKey
		clientCfg.Backend = genai.BackendGeminiAPI
	case VertexBackend:
		if strings.TrimSpace(cfg.Project) == "" {
			return nil, errors.New("gemini project is required for the vertex backend")
		}
		clientCfg.Backend = genai.BackendVertexAI
		clientCfg.Project = cfg.Project
		clientCfg.Location = cfg.Location
	default:
		return nil, fmt.Errorf("unsupported gemini backend: %s", cfg.Backend)
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{models: client.Models, catalog: &catalog{client: client}}, nil
}

func (g *Generator) Name() string { return backendName }

// Generate sends the prompt to Gemini in JSON response mode and returns the
// concatenated text parts of the first candidate.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(req.Temperature)),
		CandidateCount:   1,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return "", &ai.ModelNotFoundError{Backend: backendName, Model: req.Model, Err: err}
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(resp), nil
}

// ListModels returns the model names visible to the configured credentials.
func (g *Generator) ListModels(ctx context.Context) ([]string, error) {
	if g == nil || g.catalog == nil {
		return nil, errors.New("gemini generator is not initialized")
	}
	return g.catalog.ListModels(ctx)
}

// responseText joins the text parts of the first candidate. An empty answer is
// not an error here; the response parser reports it.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		break
	}

	return strings.TrimSpace(builder.String())
}

type catalog struct {
	client *genai.Client
}

func (c *catalog) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for model, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list gemini models: %w", err)
		}
		names = append(names, strings.TrimPrefix(model.Name, "models/"))
	}
	return names, nil
}
