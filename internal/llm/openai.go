package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChain wraps any langchaingo model. OpenAI-compatible endpoints
// (OpenAI, OpenRouter) are built through NewOpenAI.
type LangChain struct {
	name  string
	model llms.Model
}

// NewLangChain wraps an already constructed langchaingo model.
func NewLangChain(name string, model llms.Model) *LangChain {
	return &LangChain{name: name, model: model}
}

func NewOpenAI(name string, opts ProviderOptions) (*LangChain, error) {
	if opts.APIKey == "" {
		return nil, &ConfigurationError{Provider: name, Message: "API key is required"}
	}

	oo := []openai.Option{openai.WithToken(opts.APIKey)}
	if opts.Model != "" {
		oo = append(oo, openai.WithModel(opts.Model))
	}
	if opts.BaseURL != "" {
		oo = append(oo, openai.WithBaseURL(opts.BaseURL))
	}

	model, err := openai.New(oo...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", name, err)
	}
	return NewLangChain(name, model), nil
}

func (c *LangChain) Name() string { return c.name }

// Generate sends a single human message. JSON mode is only requested for
// objects; OpenAI's json_object mode rejects top-level arrays.
func (c *LangChain) Generate(ctx context.Context, req Request) (string, error) {
	var callOpts []llms.CallOption
	if req.Format == FormatJSONObject {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, c.model, req.Prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%s generate failed: %w", c.name, err)
	}
	return text, nil
}
