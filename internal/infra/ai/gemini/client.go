package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/automaton-organizer/internal/domain/ai"
)

const (
	DefaultBaseURL  = "https://generativelanguage.googleapis.com"
	defaultTimeout  = 60 * time.Second
	maxResponseSize = 10 * 1024 * 1024 // 10MB
	maxErrorBody    = 300
)

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a Generative Language API client. baseURL may be empty.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type modelsResponse struct {
	Models        []ai.Model `json:"models"`
	NextPageToken string     `json:"nextPageToken"`
	Error         *apiError  `json:"error,omitempty"`
}

type generateRequest struct {
	Contents         []content  `json:"contents"`
	GenerationConfig *genConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ListModels walks every page of the model catalog.
func (c *Client) ListModels(ctx context.Context) ([]ai.Model, error) {
	var out []ai.Model
	pageToken := ""
	for {
		u := c.baseURL + "/v1/models"
		if pageToken != "" {
			u += "?pageToken=" + url.QueryEscape(pageToken)
		}
		var resp modelsResponse
		if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Models...)
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Generate posts one generateContent call and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	parts := make([]part, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, part{Text: p})
	}
	body := generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: &genConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	// model names come back from the catalog as "models/<id>"
	model := req.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	u := c.baseURL + "/v1/" + model + ":generateContent"

	var resp generateResponse
	if err := c.do(ctx, http.MethodPost, u, jsonBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ai.ErrEmptyResponse
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError turns a non-2xx reply into an error, wrapping ErrQuotaExceeded
// for rate limiting.
func statusError(code int, body []byte) error {
	var wrapped struct {
		Error *apiError `json:"error"`
	}
	var msg, status string
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil {
		msg = wrapped.Error.Message
		status = wrapped.Error.Status
	} else {
		msg = string(body)
	}
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("%w: gemini [%d]: %s", ai.ErrQuotaExceeded, code, msg)
	}
	return fmt.Errorf("gemini error [%d %s]: %s", code, status, msg)
}
