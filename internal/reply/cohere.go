package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pcastro/parley/internal/config"
)

const cohereGenerateURL = "https://api.cohere.ai/v1/generate"

type cohereRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type cohereResponse struct {
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
}

// Cohere calls the Cohere generate endpoint.
type Cohere struct {
	client *http.Client
	url    string
	apiKey string
	model  string
	tokens int
	temp   float64
}

func NewCohere(cfg config.ProviderConfig) *Cohere {
	return &Cohere{
		client: &http.Client{Timeout: cfg.Timeout()},
		url:    cohereGenerateURL,
		apiKey: cfg.ResolveAPIKey(),
		model:  cfg.Model,
		tokens: cfg.MaxTokens,
		temp:   cfg.Temperature,
	}
}

func (c *Cohere) Reply(ctx context.Context, prompt string) string {
	body, err := json.Marshal(cohereRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   c.tokens,
		Temperature: c.temp,
	})
	if err != nil {
		return FallbackError
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return FallbackError
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return FallbackError
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FallbackError
	}

	var parsed cohereResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return FallbackError
	}
	if len(parsed.Generations) == 0 {
		return FallbackEmpty
	}
	text := strings.TrimSpace(parsed.Generations[0].Text)
	if text == "" {
		return FallbackEmpty
	}
	return text
}
