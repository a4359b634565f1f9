package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/smartlearn/smartlearn-api/internal/generation"
)

// Options configures the transport. The zero value talks to the public
// Gemini API with a default HTTP client.
type Options struct {
	// BaseURL overrides the API endpoint, e.g. for a proxy or a test server.
	BaseURL string
	// HTTPClient overrides the client used for every key.
	HTTPClient *http.Client
}

// Backend implements generation.Backend using the genai SDK.
type Backend struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*genai.Client
}

var _ generation.Backend = (*Backend)(nil)

// NewBackend returns a Backend.
func NewBackend(opts Options, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		opts:    opts,
		logger:  log.With(slog.String("component", "gemini_backend")),
		clients: make(map[string]*genai.Client),
	}
}

// client returns the cached SDK client for apiKey, creating it on first use.
func (b *Backend) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key cannot be empty", generation.ErrInvalidConfig)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.clients[apiKey]; ok {
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: b.opts.HTTPClient,
	}
	if b.opts.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = strings.TrimSuffix(b.opts.BaseURL, "/") + "/"
	}

	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %w", generation.ErrInvalidConfig, err)
	}
	b.clients[apiKey] = c
	return c, nil
}

// Generate sends a single prompt and returns the reply text.
func (b *Backend) Generate(ctx context.Context, apiKey, model string, req generation.Request) (string, error) {
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}

	resp, err := c.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", translateError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrEmptyResponse)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: reply blocked by safety filters", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text in %d candidate(s)", generation.ErrEmptyResponse, len(resp.Candidates))
	}
	return text, nil
}

// ListModels returns every model visible to apiKey.
func (b *Backend) ListModels(ctx context.Context, apiKey string) ([]generation.ModelInfo, error) {
	c, err := b.client(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	var models []generation.ModelInfo
	for m, err := range c.Models.All(ctx) {
		if err != nil {
			return nil, translateError(err)
		}
		models = append(models, generation.ModelInfo{
			Name:             m.Name,
			SupportedActions: m.SupportedActions,
		})
	}
	b.logger.DebugContext(ctx, "listed models", slog.Int("count", len(models)))
	return models, nil
}

// translateError converts SDK API errors into *generation.APIError.
func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &generation.APIError{
			StatusCode: apiErr.Code,
			Status:     apiErr.Status,
			Message:    apiErr.Message,
		}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &generation.APIError{
			StatusCode: apiErrPtr.Code,
			Status:     apiErrPtr.Status,
			Message:    apiErrPtr.Message,
		}
	}
	return err
}
