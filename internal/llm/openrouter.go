package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spherical/calendar-extractor/internal/domain"
)

const (
	openRouterURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel = "meta-llama/llama-3-8b-instruct"
)

// OpenRouterClient talks to an OpenAI-compatible chat completions endpoint
// and reads the reply as an SSE stream.
type OpenRouterClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
	retry      *RetryConfig
	logger     *domain.Logger
}

// Message represents a chat message
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart represents a part of message content
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// chatRequest represents the chat completions request body
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// chatResponse represents one streamed completions frame
type chatResponse struct {
	ID      string   `json:"id"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Delta        delta  `json:"delta"`
	Message      delta  `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type delta struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// NewOpenRouterClient creates a client. An empty url uses the public
// OpenRouter endpoint.
func NewOpenRouterClient(apiKey, url string, retry *RetryConfig) *OpenRouterClient {
	if url == "" {
		url = openRouterURL
	}
	if retry == nil {
		retry = DefaultRetryConfig()
	}

	return &OpenRouterClient{
		apiKey:     apiKey,
		url:        url,
		httpClient: &http.Client{},
		retry:      retry,
		logger:     domain.DefaultLogger().WithPrefix("openrouter"),
	}
}

// Complete sends prompt to model and returns the full streamed reply.
func (c *OpenRouterClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = defaultOpenRouterModel
	}

	body, err := json.Marshal(c.buildRequest(prompt, model))
	if err != nil {
		return "", domain.APIError("Failed to marshal request", err)
	}

	resp, err := retryWithBackoff(ctx, c.retry, c.logger, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("HTTP-Referer", "https://github.com/spherical/calendar-extractor")
		req.Header.Set("X-Title", "Calendar Event Extractor")

		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", domain.APIError("Failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound {
			return "", domain.APIError(fmt.Sprintf("model %q", model), domain.ErrModelNotFound)
		}
		return "", domain.APIError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(bodyBytes)), nil)
	}

	content, err := NewStreamParser(resp.Body).Collect()
	if err != nil {
		return "", domain.APIError("Failed to parse stream", err)
	}

	c.logger.Debug("Received %d bytes from %s", len(content), model)
	return content, nil
}

// buildRequest constructs the API request for a text prompt
func (c *OpenRouterClient) buildRequest(prompt, model string) *chatRequest {
	return &chatRequest{
		Model: model,
		Messages: []Message{
			{
				Role:    "user",
				Content: []ContentPart{{Type: "text", Text: prompt}},
			},
		},
		Stream: true,
	}
}
