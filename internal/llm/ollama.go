package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spherical/calendar-extractor/internal/domain"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaClient calls a local or remote Ollama server's chat API.
type OllamaClient struct {
	host       string
	httpClient *http.Client
	retry      *RetryConfig
	logger     *domain.Logger
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error"`
}

// NewOllamaClient creates a client for the server at host.
func NewOllamaClient(host string, retry *RetryConfig) *OllamaClient {
	if host == "" {
		host = defaultOllamaHost
	}
	if retry == nil {
		retry = DefaultRetryConfig()
	}
	return &OllamaClient{
		host:       strings.TrimRight(host, "/"),
		httpClient: &http.Client{},
		retry:      retry,
		logger:     domain.DefaultLogger().WithPrefix("ollama"),
	}
}

// Complete sends a single user message and returns the reply content.
func (c *OllamaClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	})
	if err != nil {
		return "", domain.APIError("Failed to marshal request", err)
	}

	url := c.host + "/api/chat"
	resp, err := retryWithBackoff(ctx, c.retry, c.logger, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", domain.APIError("Failed to send request", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.APIError("Failed to read response", err)
	}

	var out ollamaChatResponse
	decodeErr := json.Unmarshal(data, &out)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", domain.APIError(fmt.Sprintf("model %q (try `ollama pull %s`)", model, model), domain.ErrModelNotFound)
	case resp.StatusCode != http.StatusOK:
		msg := strings.TrimSpace(string(data))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return "", domain.APIError(fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, msg), nil)
	case decodeErr != nil:
		return "", domain.APIError("Failed to decode response", decodeErr)
	case out.Error != "":
		return "", domain.APIError(out.Error, nil)
	}

	c.logger.Debug("Received %d bytes from %s", len(out.Message.Content), model)
	return out.Message.Content, nil
}
