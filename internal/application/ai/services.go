package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/automaton-organizer/internal/domain/ai"
)

const (
	DefaultTemperature     = 0.2
	DefaultMaxOutputTokens = 1024
)

// PromptBuilder turns an excerpt into the ordered text parts of a request.
type PromptBuilder interface {
	Parts(excerpt string) []string
}

// Selector discovers the generation model once and keeps it for its lifetime.
// Create one per run.
type Selector struct {
	client ai.Client
	family string
	model  string
}

func NewSelector(client ai.Client, family string) *Selector {
	return &Selector{client: client, family: family}
}

// Select returns the cached model, querying the catalog only on first use.
func (s *Selector) Select(ctx context.Context) (string, error) {
	if s.model != "" {
		return s.model, nil
	}
	models, err := s.client.ListModels(ctx)
	if err != nil {
		return "", fmt.Errorf("list models: %w", err)
	}
	m, err := ai.SelectModel(models, s.family)
	if err != nil {
		names := make([]string, 0, len(models))
		for _, m := range models {
			names = append(names, m.Name)
		}
		slog.Warn("no suitable text model in catalog", "family", s.family, "available", names)
		return "", err
	}
	s.model = m.Name
	return s.model, nil
}

// Service asks the backend for a name and category.
type Service struct {
	client          ai.Client
	prompt          PromptBuilder
	Temperature     float64
	MaxOutputTokens int
}

func NewService(client ai.Client, prompt PromptBuilder) *Service {
	return &Service{
		client:          client,
		prompt:          prompt,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// Analyze sends one excerpt to model and parses the two-line reply. No retry.
func (s *Service) Analyze(ctx context.Context, model, excerpt string) (ai.Proposal, error) {
	text, err := s.client.Generate(ctx, ai.GenerateRequest{
		Model:           model,
		Parts:           s.prompt.Parts(excerpt),
		Temperature:     s.Temperature,
		MaxOutputTokens: s.MaxOutputTokens,
	})
	if err != nil {
		return ai.Proposal{}, err
	}
	p, ok := ai.ParseProposal(text)
	if !ok {
		slog.Debug("could not parse ai response", "response", text)
		return ai.Proposal{}, fmt.Errorf("%w: %q", ai.ErrUnparsable, truncate(text, 200))
	}
	return p, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
