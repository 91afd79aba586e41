// Package voice wraps the telephony/voice-AI provider's REST API. The
// provider owns call placement, speech recognition, and webhook delivery;
// this client only creates agents/prompts and places calls.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type Agent struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Direction    string `json:"direction"`
	PromptID     string `json:"prompt_id,omitempty"`
	FirstMessage string `json:"first_message,omitempty"`
	VoiceID      string `json:"voice_id,omitempty"`
}

type Prompt struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

type PlaceCallRequest struct {
	AgentID     string            `json:"agent_id"`
	ToNumber    string            `json:"to_number"`
	MetadataRef string            `json:"metadata_ref,omitempty"` // local call id echoed back in webhooks
	Variables   map[string]string `json:"variables,omitempty"`
}

type PlaceCallResponse struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
}

type GeneratePromptRequest struct {
	Description string `json:"description"`
	Specialty   string `json:"specialty,omitempty"`
}

type GeneratePromptResponse struct {
	Prompt       string `json:"prompt"`
	FirstMessage string `json:"first_message,omitempty"`
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voice api: status %d: %s", e.StatusCode, e.Body)
}

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// RequestsPerSecond caps outbound calls to the provider. Zero means 10.
	RequestsPerSecond float64
}

// Client is the authenticated HTTP client for the voice provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	limiter    *rate.Limiter
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}
	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = 10
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
	}
}

// ====================== Agents & prompts ======================

func (c *Client) CreateAgent(ctx context.Context, a *Agent) (*Agent, error) {
	var out Agent
	if err := c.do(ctx, http.MethodPost, "/v1/agents", a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	var out Agent
	if err := c.do(ctx, http.MethodGet, "/v1/agents/"+agentID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAgent(ctx context.Context, a *Agent) (*Agent, error) {
	var out Agent
	if err := c.do(ctx, http.MethodPatch, "/v1/agents/"+a.ID, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePrompt(ctx context.Context, p *Prompt) (*Prompt, error) {
	var out Prompt
	if err := c.do(ctx, http.MethodPost, "/v1/prompts", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePrompt(ctx context.Context, p *Prompt) (*Prompt, error) {
	var out Prompt
	if err := c.do(ctx, http.MethodPatch, "/v1/prompts/"+p.ID, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ====================== Calls ======================

func (c *Client) PlaceCall(ctx context.Context, req *PlaceCallRequest) (*PlaceCallResponse, error) {
	var out PlaceCallResponse
	if err := c.do(ctx, http.MethodPost, "/v1/calls", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneratePrompt proxies a free-text description to the provider's LLM
// prompt-generation endpoint.
func (c *Client) GeneratePrompt(ctx context.Context, req *GeneratePromptRequest) (*GeneratePromptResponse, error) {
	var out GeneratePromptResponse
	if err := c.do(ctx, http.MethodPost, "/v1/prompts/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ====================== Transport ======================

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.roundTrip(ctx, method, path, body)
		if err != nil {
			lastErr = err
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: string(data)}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
			}
			continue
		}

		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
