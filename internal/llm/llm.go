// Package llm is the boundary to the generative-language API. Everything
// above it talks to a Generator so tests can substitute the upstream.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Format tells a provider what shape of text the caller will parse.
type Format int

const (
	FormatText Format = iota
	FormatJSONArray
	FormatJSONObject
)

func (f Format) String() string {
	switch f {
	case FormatJSONArray:
		return "json_array"
	case FormatJSONObject:
		return "json_object"
	default:
		return "text"
	}
}

// Request is a single prompt sent upstream.
type Request struct {
	Prompt string
	Format Format
}

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}

// ErrNoProvider is returned by New when nothing is enabled.
var ErrNoProvider = errors.New("no enabled provider")

// ConfigurationError reports a provider that cannot be constructed.
type ConfigurationError struct {
	Provider string
	Message  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Provider, strings.TrimSpace(e.Message))
}

// ProviderOptions carries the per-provider settings from config.
type ProviderOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New builds the Generator for the named provider.
func New(ctx context.Context, name string, opts ProviderOptions) (Generator, error) {
	switch name {
	case "":
		return nil, ErrNoProvider
	case "gemini":
		g, err := NewGemini(ctx, opts)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai", "openrouter":
		g, err := NewOpenAI(name, opts)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, &ConfigurationError{Provider: name, Message: "provider not supported"}
	}
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, req Request) (string, error)

func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func (f Func) Name() string { return "func" }
