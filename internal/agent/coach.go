package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/Ummehani3x/ai-goal-planner-aria/internal/llm"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/observability"
)

// Op names a Coach operation in logs and errors.
type Op string

const (
	OpClarify        Op = "clarify"
	OpPlan           Op = "plan"
	OpRegenerateStep Op = "regenerate_step"
	OpExplain        Op = "explain"
	OpImprove        Op = "improve"
	OpAsk            Op = "ask"
	OpNextMove       Op = "next_move"
)

const DefaultTimeout = 20 * time.Second

// Coach turns an unreliable text generator into total, typed operations.
// Each call builds a prompt, calls the generator, normalizes the output and
// falls back to a fixed value on any failure. It never returns an error.
type Coach struct {
	Model   llm.Generator
	Prompts *PromptManager
	Logger  *observability.Logger

	timeout time.Duration
	guard   *Guard
}

type Option func(*Coach)

// WithTimeout bounds every upstream call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coach) { c.timeout = d }
}

// WithGuard short-circuits to fallbacks while the upstream keeps failing.
func WithGuard(g *Guard) Option {
	return func(c *Coach) { c.guard = g }
}

func NewCoach(model llm.Generator, prompts *PromptManager, logger *observability.Logger, opts ...Option) *Coach {
	if prompts == nil {
		prompts = NewPromptManager("")
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	c := &Coach{
		Model:   model,
		Prompts: prompts,
		Logger:  logger,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// call performs the Calling stage. Panics from the generator are converted
// into errors so the caller always gets a value.
func (c *Coach) call(ctx context.Context, op Op, req llm.Request) (text string, err error) {
	if c.Model == nil {
		return "", &UpstreamError{Op: op, Err: llm.ErrNoProvider}
	}
	if !c.guard.Allow() {
		return "", &UpstreamError{Op: op, Err: ErrCircuitOpen}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
		if err != nil {
			c.guard.RecordFailure()
			err = &UpstreamError{Op: op, Err: err}
		} else {
			c.guard.RecordSuccess()
		}
		c.Logger.LogLLM(string(op), c.Model.Name(), req.Prompt, text, time.Since(start), err)
	}()

	return c.Model.Generate(ctx, req)
}

// run drives one invocation: Building, Calling, Normalizing, then Done or
// FallingBack.
func run[T any](c *Coach, ctx context.Context, op Op, req llm.Request, parse func(string) (T, error), fallback func() T) Outcome[T] {
	text, err := c.call(ctx, op, req)
	if err == nil {
		var v T
		if v, err = parse(text); err == nil {
			return succeeded(v)
		}
	}
	c.Logger.LogFallback(string(op), err)
	return fellBack(fallback(), err)
}

func (c *Coach) GenerateClarifications(ctx context.Context, goal string) Outcome[[]string] {
	req := llm.Request{Prompt: c.Prompts.ClarificationPrompt(goal), Format: llm.FormatJSONArray}
	return run(c, ctx, OpClarify, req, ParseQuestions, FallbackQuestions)
}

// GeneratePlan always returns a well-formed plan carrying goal.
func (c *Coach) GeneratePlan(ctx context.Context, goal string, answers []ClarificationAnswer) Outcome[Plan] {
	req := llm.Request{Prompt: c.Prompts.PlanPrompt(goal, answers), Format: llm.FormatJSONObject}
	out := run(c, ctx, OpPlan, req, ParsePlan, func() Plan { return FallbackPlan(goal) })
	out.Value.Goal = goal
	return out
}

// RegenerateStep rewrites step; on failure the step comes back unchanged.
func (c *Coach) RegenerateStep(ctx context.Context, step Step, goalContext string) Outcome[Step] {
	req := llm.Request{Prompt: c.Prompts.StepRewritePrompt(step, goalContext), Format: llm.FormatJSONObject}
	out := run(c, ctx, OpRegenerateStep, req, ParseStep, func() Step { return FallbackStep(step) })
	if !out.Fallback && out.Value.ID == "" {
		out.Value.ID = step.ID
	}
	return out
}

func (c *Coach) ExplainStep(ctx context.Context, title, description string) Outcome[string] {
	req := llm.Request{Prompt: c.Prompts.ExplainPrompt(title, description)}
	return run(c, ctx, OpExplain, req, ParseText, FallbackExplanation)
}

func (c *Coach) ImproveStep(ctx context.Context, title, description string) Outcome[string] {
	req := llm.Request{Prompt: c.Prompts.ImprovePrompt(title, description)}
	return run(c, ctx, OpImprove, req, ParseText, FallbackImprovement)
}

func (c *Coach) AskAria(ctx context.Context, question, title string) Outcome[string] {
	req := llm.Request{Prompt: c.Prompts.AskPrompt(question, title)}
	return run(c, ctx, OpAsk, req, ParseText, FallbackAnswer)
}

func (c *Coach) GetNextMove(ctx context.Context, title, description string) Outcome[string] {
	req := llm.Request{Prompt: c.Prompts.NextMovePrompt(title, description)}
	return run(c, ctx, OpNextMove, req, ParseText, FallbackNextMove)
}
