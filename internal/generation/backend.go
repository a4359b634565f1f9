package generation

import "context"

// GenerateContentAction is the capability a model must advertise to be
// selectable.
const GenerateContentAction = "generateContent"

// Request is a single text generation call.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// ModelInfo describes a model returned by discovery.
type ModelInfo struct {
	Name             string
	SupportedActions []string
}

// Supports reports whether the model advertises action.
func (m ModelInfo) Supports(action string) bool {
	for _, a := range m.SupportedActions {
		if a == action {
			return true
		}
	}
	return false
}

// Backend is the transport to the model service. Implementations return
// ErrEmptyResponse when the model produced no text, ErrContentBlocked on
// safety refusals, and *APIError for service-reported failures.
type Backend interface {
	// Generate runs req against model using apiKey.
	Generate(ctx context.Context, apiKey, model string, req Request) (string, error)

	// ListModels returns the models visible to apiKey.
	ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error)
}
