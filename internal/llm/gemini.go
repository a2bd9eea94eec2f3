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

// GeminiClient talks to the Google Generative Language API's
// generateContent endpoint, translating the chat-message shape into
// Gemini's contents/systemInstruction split.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewGeminiClient(apiKey, model, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiClient{apiKey: apiKey, model: model, baseURL: baseURL, http: &http.Client{}}
}

func (c *GeminiClient) Name() string       { return "gemini" }
func (c *GeminiClient) Model() string      { return c.model }
func (c *GeminiClient) RequiresAuth() bool { return true }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	SystemInstruction *geminiContent `json:"systemInstruction,omitempty"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	var req geminiRequest
	req.GenerationConfig.Temperature = params.Temperature
	for _, m := range messages {
		part := geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}}
		if m.Role == RoleSystem {
			sys := part
			req.SystemInstruction = &sys
			continue
		}
		req.Contents = append(req.Contents, part)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	timeout := time.Duration(params.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini chat request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Provider: "gemini", Status: resp.StatusCode, Body: TruncateBody(string(respBody)), Retry: resp.StatusCode == 429 || resp.StatusCode >= 500}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini: parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty candidates in response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
