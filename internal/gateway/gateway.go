package gateway

import (
	"context"
	"time"

	"github.com/Ummehani3x/ai-goal-planner-aria/internal/agent"
)

// Gateway defines a transport that exposes the coach to callers.
type Gateway interface {
	// Start serves until ctx is cancelled or the listener fails
	Start(ctx context.Context) error
	// Stop gracefully drains in-flight requests
	Stop() error
}

// Request bodies.

type GoalRequest struct {
	Goal string `json:"goal"`
}

type StrategyRequest struct {
	Goal    string                      `json:"goal"`
	Answers []agent.ClarificationAnswer `json:"answers"`
}

type RegenerateStepRequest struct {
	Step agent.Step `json:"step"`
	Goal string     `json:"goal"`
}

type StepRequest struct {
	StepTitle       string `json:"stepTitle"`
	StepDescription string `json:"stepDescription"`
}

type AskRequest struct {
	Question  string `json:"question"`
	StepTitle string `json:"stepTitle"`
}

// Response bodies.

type QuestionsResponse struct {
	Questions []string `json:"questions"`
}

type RecentResponse struct {
	Strategies []agent.Plan `json:"strategies"`
}

type StepResponse struct {
	Step agent.Step `json:"step"`
}

type ExplanationResponse struct {
	Explanation string `json:"explanation"`
}

type SuggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports liveness. Uptime is in seconds.
type HealthResponse struct {
	Status        string    `json:"status"`
	PID           int       `json:"pid"`
	Uptime        float64   `json:"uptime"`
	Timestamp     time.Time `json:"timestamp"`
	InstanceID    string    `json:"instanceId"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	InFlight      int64     `json:"inFlight"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
