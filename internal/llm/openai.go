package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint:
// OpenAI itself, OpenRouter, or a compatible gateway.
type OpenAIClient struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewOpenAIClient constructs a client for name ("openai" or "openrouter")
// against baseURL, which must already be validated as http(s):// by the
// caller.
func NewOpenAIClient(name, apiKey, model, baseURL string) *OpenAIClient {
	return &OpenAIClient{
		name:    name,
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

func (c *OpenAIClient) Name() string       { return c.name }
func (c *OpenAIClient) Model() string      { return c.model }
func (c *OpenAIClient) RequiresAuth() bool { return true }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Chat sends messages to /chat/completions and returns the assistant text.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	payload := chatRequest{Model: c.model, Temperature: params.Temperature}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	timeout := time.Duration(params.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s chat request: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Provider: c.name, Status: resp.StatusCode, Body: TruncateBody(string(respBody)), Retry: resp.StatusCode == 429 || resp.StatusCode >= 500}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%s: parse response: %w", c.name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", c.name)
	}
	return parsed.Choices[0].Message.Content, nil
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the provider's available model ids.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Provider: c.name, Status: resp.StatusCode, Body: TruncateBody(string(body))}
	}
	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// ValidateKey performs a cheap authenticated call to confirm the key works.
func (c *OpenAIClient) ValidateKey(ctx context.Context) bool {
	_, err := c.ListModels(ctx)
	return err == nil
}
