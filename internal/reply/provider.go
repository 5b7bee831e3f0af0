// Package reply produces assistant replies from a remote inference
// service. Providers are total: a failed or empty generation comes back as
// canned fallback text, never as an error, so a conversation can always
// continue.
package reply

import (
	"context"
	"fmt"

	"github.com/pcastro/parley/internal/config"
)

// Fallback strings shown in place of a generation.
const (
	// FallbackEmpty is used when the service answers but produces no text.
	FallbackEmpty = "Sorry, I did not understand that."
	// FallbackError is used when the call itself fails.
	FallbackError = "Something went wrong!"
)

// Provider turns a prompt into reply text. Implementations must not
// return errors; failures map to the fallback strings above.
type Provider interface {
	Reply(ctx context.Context, prompt string) string
}

// New builds the provider named in the config.
func New(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case "cohere":
		return NewCohere(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("reply: unknown provider %q", cfg.Name)
	}
}
