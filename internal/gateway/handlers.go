package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Ummehani3x/ai-goal-planner-aria/internal/agent"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/governance"
)

const (
	maxBodyBytes       = 1 << 20
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

func (g *HTTPGateway) handleGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !g.allow(w, r, governance.Request{Operation: "goal", Fields: []governance.Field{
		{Name: "goal", Value: req.Goal, Required: true, Missing: "Goal text is required"},
	}}) {
		return
	}

	out := g.coach.GenerateClarifications(r.Context(), req.Goal)
	if len(out.Value) == 0 {
		g.invariant(w, agent.OpClarify, "no clarification questions", "Failed to generate clarifications")
		return
	}
	writeJSON(w, http.StatusOK, QuestionsResponse{Questions: out.Value})
}

func (g *HTTPGateway) handleGenerateStrategy(w http.ResponseWriter, r *http.Request) {
	var req StrategyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	fields := []governance.Field{
		{Name: "goal", Value: req.Goal, Required: true, Missing: "Valid goal text is required"},
	}
	for _, a := range req.Answers {
		fields = append(fields,
			governance.Field{Name: "question", Value: a.Question},
			governance.Field{Name: "answer", Value: a.Answer},
		)
	}
	if !g.allow(w, r, governance.Request{Operation: "strategy", Fields: fields}) {
		return
	}

	out := g.coach.GeneratePlan(r.Context(), req.Goal, req.Answers)
	plan := out.Value
	if err := plan.Validate(); err != nil {
		g.invariant(w, agent.OpPlan, err.Error(), "Failed to generate strategy")
		return
	}

	plan.StrategyID = g.newID()
	created := g.now().UTC()
	plan.CreatedAt = &created
	if err := g.plans.Save(r.Context(), plan.StrategyID, plan); err != nil {
		// The plan is still held in memory; only the durable copy is missing.
		g.logger.Zap().Warn("failed to persist strategy",
			zap.String("strategyId", plan.StrategyID),
			zap.Error(err),
		)
	}
	writeJSON(w, http.StatusOK, plan)
}

func (g *HTTPGateway) handleRegenerateStep(w http.ResponseWriter, r *http.Request) {
	var req RegenerateStepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !g.allow(w, r, governance.Request{Operation: "regenerate_step", Fields: []governance.Field{
		{Name: "step.title", Value: req.Step.Title, Required: true, Missing: "Step title is required"},
		{Name: "step.description", Value: req.Step.Description, Required: true, Missing: "Step description is required"},
		{Name: "goal", Value: req.Goal},
	}}) {
		return
	}

	out := g.coach.RegenerateStep(r.Context(), req.Step, req.Goal)
	if err := out.Value.Validate(); err != nil {
		g.invariant(w, agent.OpRegenerateStep, err.Error(), "Failed to regenerate step")
		return
	}
	writeJSON(w, http.StatusOK, StepResponse{Step: out.Value})
}

func (g *HTTPGateway) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	plan, ok := g.plans.Get(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "Strategy not found")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (g *HTTPGateway) handleStrategiesInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.plans.Info())
}

func (g *HTTPGateway) handleRecentStrategies(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	plans, err := g.plans.Recent(r.Context(), limit)
	if err != nil {
		g.logger.Zap().Error("failed to list strategies", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list strategies")
		return
	}
	writeJSON(w, http.StatusOK, RecentResponse{Strategies: plans})
}

func (g *HTTPGateway) handleExplain(w http.ResponseWriter, r *http.Request) {
	req, ok := g.decodeStep(w, r, "explain")
	if !ok {
		return
	}
	out := g.coach.ExplainStep(r.Context(), req.StepTitle, req.StepDescription)
	writeJSON(w, http.StatusOK, ExplanationResponse{Explanation: out.Value})
}

func (g *HTTPGateway) handleImprove(w http.ResponseWriter, r *http.Request) {
	req, ok := g.decodeStep(w, r, "improve")
	if !ok {
		return
	}
	out := g.coach.ImproveStep(r.Context(), req.StepTitle, req.StepDescription)
	writeJSON(w, http.StatusOK, SuggestionResponse{Suggestion: out.Value})
}

func (g *HTTPGateway) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !g.allow(w, r, governance.Request{Operation: "ask", Fields: []governance.Field{
		{Name: "question", Value: req.Question, Required: true, Missing: "Question is required"},
		{Name: "stepTitle", Value: req.StepTitle},
	}}) {
		return
	}
	out := g.coach.AskAria(r.Context(), req.Question, req.StepTitle)
	writeJSON(w, http.StatusOK, AnswerResponse{Answer: out.Value})
}

func (g *HTTPGateway) handleNextMove(w http.ResponseWriter, r *http.Request) {
	req, ok := g.decodeStep(w, r, "next")
	if !ok {
		return
	}
	out := g.coach.GetNextMove(r.Context(), req.StepTitle, req.StepDescription)
	writeJSON(w, http.StatusOK, MessageResponse{Message: out.Value})
}

func (g *HTTPGateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := g.status.Snapshot()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		PID:           snap.Instance.PID,
		Uptime:        snap.Uptime.Seconds(),
		Timestamp:     g.now().UTC(),
		InstanceID:    snap.Instance.ID,
		LastHeartbeat: snap.LastHeartbeat.UTC(),
		InFlight:      snap.InFlight,
	})
}

// decodeStep reads the {stepTitle, stepDescription} body shared by the
// explain, improve and next endpoints.
func (g *HTTPGateway) decodeStep(w http.ResponseWriter, r *http.Request, op string) (StepRequest, bool) {
	var req StepRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	ok := g.allow(w, r, governance.Request{Operation: op, Fields: []governance.Field{
		{Name: "stepTitle", Value: req.StepTitle, Required: true, Missing: "Step title is required"},
		{Name: "stepDescription", Value: req.StepDescription},
	}})
	return req, ok
}

// allow runs the input policy and writes a 400 when it denies.
func (g *HTTPGateway) allow(w http.ResponseWriter, r *http.Request, req governance.Request) bool {
	res, err := g.policy.Evaluate(r.Context(), req)
	if err != nil {
		g.logger.LogInvariant(req.Operation, err)
		writeError(w, http.StatusInternalServerError, "Failed to validate request")
		return false
	}
	if verr := res.Err(); verr != nil {
		writeError(w, http.StatusBadRequest, verr.Error())
		return false
	}
	return true
}

// invariant reports a coach result that should have been impossible.
func (g *HTTPGateway) invariant(w http.ResponseWriter, op agent.Op, reason, msg string) {
	g.logger.LogInvariant(string(op), &agent.InvariantError{Op: op, Reason: reason})
	writeError(w, http.StatusInternalServerError, msg)
}

// decodeJSON reads a JSON body into v. An empty body decodes as {}.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body", Details: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
