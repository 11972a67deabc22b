package testutil

import (
	"context"
	"sync"

	"github.com/bryanwahyu/automaton-organizer/internal/domain/ai"
)

// MockAI implements ai.Client. Respond decides the reply per request;
// when nil, Reply is returned for every call.
type MockAI struct {
	mu sync.Mutex

	Models    []ai.Model
	ListErr   error
	Reply     string
	Respond   func(req ai.GenerateRequest) (string, error)
	listCalls int
	requests  []ai.GenerateRequest
}

func (m *MockAI) ListModels(ctx context.Context) ([]ai.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Models, nil
}

func (m *MockAI) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	respond := m.Respond
	m.mu.Unlock()
	if respond != nil {
		return respond(req)
	}
	return m.Reply, nil
}

// ListCalls reports how many times the catalog was queried.
func (m *MockAI) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// Requests returns every generate request seen so far.
func (m *MockAI) Requests() []ai.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.GenerateRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// GeminiCatalog is a small catalog with one usable text model.
func GeminiCatalog() []ai.Model {
	return []ai.Model{
		{Name: "models/embedding-001", Methods: []string{"embedContent"}},
		{Name: "models/gemini-1.5-flash", Methods: []string{ai.MethodGenerateContent, "countTokens"}},
	}
}
