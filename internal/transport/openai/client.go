// Package openai adapts OpenAI-compatible APIs: query embeddings and chat-based typo correction.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Config is shared by the embedder and the corrector. BaseURL points at any OpenAI-compatible
// endpoint (Nebius, vLLM, a local gateway); empty means api.openai.com.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	// Provider labels metrics, e.g. "openai" or "nebius".
	Provider string
}

func newClient(cfg *Config) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(c)
}

// providerError describes a failed call and wraps sentinel so callers can classify it.
func providerError(call string, err, sentinel error) error {
	var (
		reqErr *openai.RequestError
		apiErr *openai.APIError
	)
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("%s: status %d: %s: %w", call, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	case errors.As(err, &reqErr):
		msg := bodyDetail(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		return fmt.Errorf("%s: status %d: %s: %w", call, reqErr.HTTPStatusCode, msg, sentinel)
	default:
		return fmt.Errorf("%s: %w: %w", call, sentinel, err)
	}
}

// bodyDetail reads {"detail": "..."}, the error shape of some compatible providers.
func bodyDetail(body []byte) string {
	var v struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return v.Detail
}
