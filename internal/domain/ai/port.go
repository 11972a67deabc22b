package ai

import "context"

// MethodGenerateContent is the catalog capability required for analysis.
const MethodGenerateContent = "generateContent"

// Model is one entry of the backend catalog.
type Model struct {
	Name    string   `json:"name"`
	Methods []string `json:"supportedGenerationMethods"`
}

// GenerateRequest is a provider-neutral text completion request.
type GenerateRequest struct {
	Model           string
	Parts           []string
	Temperature     float64
	MaxOutputTokens int
}

type Client interface {
	ListModels(ctx context.Context) ([]Model, error)
	// Generate returns the first candidate's text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
