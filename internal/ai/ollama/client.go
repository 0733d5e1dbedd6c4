// Package ollama is the local Ollama backend of the model gateway.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/spigell/resume-ranker/internal/ai"
)

const (
	backendName = "ollama"

	// DefaultHost is where `ollama serve` listens by default.
	DefaultHost = "http://localhost:11434"

	defaultTopP       = 0.9
	defaultNumContext = 8192
)

// Config configures the Ollama client.
type Config struct {
	Host       string
	TopP       float64
	NumContext int
}

type chatAPI interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
	List(ctx context.Context) (*api.ListResponse, error)
}

// Client generates completions through the Ollama chat endpoint.
type Client struct {
	api        chatAPI
	topP       float64
	numContext int
}

var (
	_ ai.Backend     = (*Client)(nil)
	_ ai.ModelLister = (*Client)(nil)
)

// New builds a Client for cfg.Host, or DefaultHost when empty.
func New(cfg Config) (*Client, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = DefaultHost
	}

	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama host %q must include scheme and port", host)
	}

	return newClient(api.NewClient(base, http.DefaultClient), cfg), nil
}

func newClient(c chatAPI, cfg Config) *Client {
	client := &Client{api: c, topP: cfg.TopP, numContext: cfg.NumContext}
	if client.topP <= 0 {
		client.topP = defaultTopP
	}
	if client.numContext <= 0 {
		client.numContext = defaultNumContext
	}
	return client
}

func (c *Client) Name() string { return backendName }

// Generate sends a single user message in JSON format mode without streaming.
func (c *Client) Generate(ctx context.Context, req ai.Request) (string, error) {
	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: []api.Message{{Role: "user", Content: req.Prompt}},
		Stream:   &stream,
		Format:   json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": req.Temperature,
			"top_p":       c.topP,
			"num_ctx":     c.numContext,
		},
	}

	var builder strings.Builder
	err := c.api.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		builder.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return "", &ai.ModelNotFoundError{Backend: backendName, Model: req.Model, Err: err}
		}
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	return builder.String(), nil
}

// ListModels returns installed model names, as `ollama list` prints them.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ollama models: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func isNotFound(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusNotFound
	}
	var statusPtr *api.StatusError
	if errors.As(err, &statusPtr) && statusPtr != nil {
		return statusPtr.StatusCode == http.StatusNotFound
	}
	return false
}
