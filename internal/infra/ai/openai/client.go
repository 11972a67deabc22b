package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-organizer/internal/domain/ai"
	"github.com/sashabaranov/go-openai"
)

// Client adapts any OpenAI-compatible chat endpoint to ai.Client.
type Client struct {
	*openai.Client
}

// NewClient builds the adapter. Empty baseURL means api.openai.com; timeout <= 0 means none.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{Client: openai.NewClientWithConfig(cfg)}
}

// ListModels marks chat-capable ids as generateContent; the endpoint exposes
// no capability list. A catalog with no recognised chat id (self-hosted
// OpenAI-compatible servers) advertises every non-specialised model instead.
func (c *Client) ListModels(ctx context.Context) ([]ai.Model, error) {
	list, err := c.Client.ListModels(ctx)
	if err != nil {
		return nil, mapError("list models", err)
	}
	known := false
	for _, m := range list.Models {
		if isChatModel(m.ID) {
			known = true
			break
		}
	}
	out := make([]ai.Model, 0, len(list.Models))
	for _, m := range list.Models {
		model := ai.Model{Name: m.ID}
		if isChatModel(m.ID) || (!known && !isSpecialised(m.ID)) {
			model.Methods = []string{ai.MethodGenerateContent}
		}
		out = append(out, model)
	}
	return out, nil
}

var chatPrefixes = []string{"gpt-", "chatgpt-", "o1", "o3", "o4"}

// non-chat variants that share a chat prefix (gpt-4o-audio-preview, gpt-image-1, ...)
var specialisedMarkers = []string{
	"audio", "realtime", "tts", "transcribe", "image", "search",
	"embedding", "whisper", "dall-e", "moderation", "instruct",
}

func isChatModel(id string) bool {
	id = strings.ToLower(id)
	for _, p := range chatPrefixes {
		if strings.HasPrefix(id, p) {
			return !isSpecialised(id)
		}
	}
	return false
}

func isSpecialised(id string) bool {
	id = strings.ToLower(id)
	for _, m := range specialisedMarkers {
		if strings.Contains(id, m) {
			return true
		}
	}
	return false
}

func (c *Client) Generate(ctx context.Context, r ai.GenerateRequest) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: r.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(r.Parts, "")},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(r.Model) {
		req.MaxCompletionTokens = r.MaxOutputTokens
	} else {
		req.MaxTokens = r.MaxOutputTokens
		req.Temperature = float32(r.Temperature)
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapError("failed to create chat completion", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ai.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func mapError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w: %v", op, ai.ErrQuotaExceeded, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w: %v", op, ai.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
