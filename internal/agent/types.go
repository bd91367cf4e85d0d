package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StepID is the caller-visible ordinal of a step. Models send it as either a
// string or a number; it is always rendered as a string.
type StepID string

func (id *StepID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StepID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("step id must be a string or number: %w", err)
	}
	*id = StepID(n.String())
	return nil
}

// Step is one phase of a plan.
type Step struct {
	ID          StepID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tips        string `json:"tips,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// Validate requires a title and description.
func (s Step) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("step title is empty")
	}
	if strings.TrimSpace(s.Description) == "" {
		return errors.New("step description is empty")
	}
	return nil
}

// Plan is the normalized strategy returned for a goal. Steps are ordered;
// Foundation precedes Growth precedes Mastery.
type Plan struct {
	StrategyID string     `json:"strategyId,omitempty"`
	Title      string     `json:"title"`
	Overview   string     `json:"overview"`
	Steps      []Step     `json:"steps"`
	Goal       string     `json:"goal"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// Validate reports whether the plan is well formed: a title, at least one
// step, and every step valid.
func (p Plan) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("plan title is empty")
	}
	if len(p.Steps) == 0 {
		return errors.New("plan has no steps")
	}
	for i, s := range p.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// ClarificationAnswer is one question/answer pair collected before planning.
type ClarificationAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
