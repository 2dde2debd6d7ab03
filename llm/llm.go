// Package llm selects and constructs the provider adapter used for plan
// generation and visual validation.
package llm

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/plandraft/plandraft"
	"github.com/plandraft/plandraft/llm/claude"
	"github.com/plandraft/plandraft/llm/gemini"
	"github.com/plandraft/plandraft/llm/grok"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderGrok   Provider = "grok"
)

// Settings carries the provider choice and per-provider credentials. Only the
// key of the selected provider is required; others may be empty.
type Settings struct {
	Provider Provider

	// Model overrides the provider's default model when non-empty.
	Model string

	GeminiAPIKey    string
	AnthropicAPIKey string
	XAIAPIKey       string

	// RequestsPerMinute throttles outgoing provider calls. Zero disables
	// throttling.
	RequestsPerMinute float64
}

// ParseProvider normalizes a provider name from config.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderGemini:
		return ProviderGemini, nil
	case ProviderClaude:
		return ProviderClaude, nil
	case ProviderGrok:
		return ProviderGrok, nil
	default:
		return "", goerr.New("unknown LLM provider", goerr.V("provider", s))
	}
}

// New constructs the client for the configured provider. A missing credential
// for the selected provider surfaces as ErrMissingCredential so the caller
// can disable generation instead of crashing.
func New(ctx context.Context, settings Settings) (plandraft.LLMClient, error) {
	var client plandraft.LLMClient
	var err error

	switch settings.Provider {
	case ProviderGemini:
		var opts []gemini.Option
		if settings.Model != "" {
			opts = append(opts, gemini.WithModel(settings.Model))
		}
		client, err = gemini.New(ctx, settings.GeminiAPIKey, opts...)

	case ProviderClaude:
		var opts []claude.Option
		if settings.Model != "" {
			opts = append(opts, claude.WithModel(settings.Model))
		}
		client, err = claude.New(ctx, settings.AnthropicAPIKey, opts...)

	case ProviderGrok:
		var opts []grok.Option
		if settings.Model != "" {
			opts = append(opts, grok.WithModel(settings.Model))
		}
		client, err = grok.New(ctx, settings.XAIAPIKey, opts...)

	default:
		return nil, goerr.New("unknown LLM provider", goerr.V("provider", settings.Provider))
	}

	if err != nil {
		return nil, err
	}

	if settings.RequestsPerMinute > 0 {
		client = NewRateLimited(client, settings.RequestsPerMinute)
	}
	return client, nil
}
