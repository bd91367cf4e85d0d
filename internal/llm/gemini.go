package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-1.5-flash"

// Gemini generates text with Google's Gemini API.
type Gemini struct {
	models *genai.Models
	model  string
}

// NewGemini creates a Gemini generator authenticated by API key.
func NewGemini(ctx context.Context, opts ProviderOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, &ConfigurationError{Provider: "gemini", Message: "API key is required"}
	}

	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{models: client.Models, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Generate sends the prompt as a single user turn. JSON formats switch the
// model into structured output so the payload arrives without prose.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	var gc *genai.GenerateContentConfig
	if req.Format != FormatText {
		gc = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), gc)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return resp.Text(), nil
}
