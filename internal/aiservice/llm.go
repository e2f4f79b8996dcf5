package aiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soaringjerry/Clearlabel/internal/config"
)

// Completer returns the raw text a language model produced for prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatClient talks to an OpenAI compatible chat-completions endpoint.
type ChatClient struct {
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	client   HTTPClient
}

// NewChatClient returns nil when no API key is configured.
func NewChatClient(cfg config.LLMConfig, client HTTPClient) *ChatClient {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ChatClient{
		endpoint: normalizeOpenAIEndpoint(cfg.BaseURL),
		apiKey:   cfg.APIKey,
		model:    model,
		timeout:  timeout,
		client:   client,
	}
}

func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := map[string]any{
		"model":       c.model,
		"temperature": 0.4,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(pb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return stripFences(cc.Choices[0].Message.Content), nil
}

const systemPrompt = "You are an expert in product transparency, consumer health and ethical sourcing. Reply with JSON only."

// stripFences removes a surrounding ```json or ``` markdown block.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func normalizeOpenAIEndpoint(base string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(base), "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	switch {
	case strings.HasSuffix(endpoint, "/chat/completions"):
		return endpoint
	case strings.HasSuffix(endpoint, "/v1"):
		return endpoint + "/chat/completions"
	default:
		return endpoint + "/v1/chat/completions"
	}
}
