package governance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Field is one caller-supplied input.
type Field struct {
	Name     string
	Value    string
	Required bool
	// Missing is the message reported when a required field is blank.
	Missing string
}

// Request contains the inputs of one operation to be evaluated.
type Request struct {
	Operation string
	Fields    []Field
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Field  string
	Reason string
}

// PolicyEngine evaluates operation inputs against a set of rules.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// ValidationError is a denied Result as an error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Err returns a *ValidationError for a denied result, nil otherwise.
func (r Result) Err() error {
	if r.Effect != EffectDeny {
		return nil
	}
	return &ValidationError{Field: r.Field, Reason: r.Reason}
}

// DefaultPolicyEngine checks required fields, input length and denied
// patterns.
type DefaultPolicyEngine struct {
	MaxLength   int
	DeniedRegex []*regexp.Regexp
}

func NewDefaultPolicyEngine(maxLength int) *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		MaxLength:   maxLength,
		DeniedRegex: make([]*regexp.Regexp, 0),
	}
}

func (e *DefaultPolicyEngine) DenyPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRegex = append(e.DeniedRegex, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	for _, f := range req.Fields {
		if f.Required && strings.TrimSpace(f.Value) == "" {
			reason := f.Missing
			if reason == "" {
				reason = fmt.Sprintf("%s is required", f.Name)
			}
			return Result{Effect: EffectDeny, Field: f.Name, Reason: reason}, nil
		}

		if e.MaxLength > 0 && utf8.RuneCountInString(f.Value) > e.MaxLength {
			return Result{
				Effect: EffectDeny,
				Field:  f.Name,
				Reason: fmt.Sprintf("%s exceeds %d characters", f.Name, e.MaxLength),
			}, nil
		}

		for _, re := range e.DeniedRegex {
			if re.MatchString(f.Value) {
				return Result{
					Effect: EffectDeny,
					Field:  f.Name,
					Reason: fmt.Sprintf("%s contains restricted content", f.Name),
				}, nil
			}
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}
