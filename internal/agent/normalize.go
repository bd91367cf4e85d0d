package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	openingFence = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\r?\n?")
	closingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// stripCodeFences removes a markdown fence wrapping the payload. Fences
// inside the payload, such as a snippet in a step description, are kept.
func stripCodeFences(text string) string {
	t := strings.TrimSpace(text)
	t = openingFence.ReplaceAllString(t, "")
	t = closingFence.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// firstArraySpan returns the first top-level [...] span in text. Brackets
// inside JSON strings are ignored.
func firstArraySpan(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseQuestions extracts the clarification questions from model output.
func ParseQuestions(raw string) ([]string, error) {
	span, ok := firstArraySpan(raw)
	if !ok {
		return nil, &NormalizationError{Kind: "questions", Reason: "no JSON array found"}
	}

	var questions []string
	if err := json.Unmarshal([]byte(span), &questions); err != nil {
		return nil, &NormalizationError{Kind: "questions", Reason: "array is not a list of strings", Err: err}
	}

	out := questions[:0]
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, &NormalizationError{Kind: "questions", Reason: "no questions"}
	}
	return out, nil
}

// decodeObject strips fences and parses the remainder strictly as one JSON
// object, then applies the structural schema.
func decodeObject(kind, raw string, schema *jsonschema.Schema) ([]byte, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, &NormalizationError{Kind: kind, Reason: "empty payload", Err: ErrEmptyResponse}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, &NormalizationError{Kind: kind, Reason: "invalid JSON object", Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &NormalizationError{Kind: kind, Reason: "schema validation failed", Err: err}
	}
	return []byte(cleaned), nil
}

// ParsePlan turns model output into a well-formed Plan. Partial plans are
// rejected rather than returned.
func ParsePlan(raw string) (Plan, error) {
	data, err := decodeObject("plan", raw, planSchema)
	if err != nil {
		return Plan{}, err
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return Plan{}, &NormalizationError{Kind: "plan", Reason: "unexpected field types", Err: err}
	}
	// The model never owns these.
	p.StrategyID = ""
	p.Goal = ""
	p.CreatedAt = nil

	if err := p.Validate(); err != nil {
		return Plan{}, &NormalizationError{Kind: "plan", Reason: "incomplete plan", Err: err}
	}
	return p, nil
}

// ParseStep turns model output into a single rewritten Step.
func ParseStep(raw string) (Step, error) {
	data, err := decodeObject("step", raw, stepSchema)
	if err != nil {
		return Step{}, err
	}

	var s Step
	if err := json.Unmarshal(data, &s); err != nil {
		return Step{}, &NormalizationError{Kind: "step", Reason: "unexpected field types", Err: err}
	}
	if err := s.Validate(); err != nil {
		return Step{}, &NormalizationError{Kind: "step", Reason: "incomplete step", Err: err}
	}
	return s, nil
}

// ParseText accepts any non-blank prose.
func ParseText(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &NormalizationError{Kind: "text", Reason: "blank output", Err: ErrEmptyResponse}
	}
	return raw, nil
}
