package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Ummehani3x/ai-goal-planner-aria/internal/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubModel answers every prompt with the same reply or error.
type stubModel struct {
	reply string
	err   error
	panic bool
	hang  bool

	mu       sync.Mutex
	requests []llm.Request
}

func (s *stubModel) Name() string { return "stub" }

func (s *stubModel) Generate(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.panic {
		panic("provider exploded")
	}
	if s.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func (s *stubModel) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

var errNetwork = errors.New("dial tcp: connection refused")

func newTestCoach(m llm.Generator, opts ...Option) *Coach {
	return NewCoach(m, NewPromptManager(""), nil, opts...)
}

func TestGeneratePlan_FencedSuccess(t *testing.T) {
	m := &stubModel{reply: "```json\n{\"title\":\"Piano Basics\",\"overview\":\"...\",\"steps\":[{\"id\":\"1\",\"title\":\"Foundation\",\"description\":\"Practice scales\"}]}\n```"}
	c := newTestCoach(m)

	out := c.GeneratePlan(context.Background(), "learn piano", nil)

	require.False(t, out.Fallback)
	assert.NoError(t, out.Cause)
	assert.Equal(t, "Piano Basics", out.Value.Title)
	assert.Equal(t, "learn piano", out.Value.Goal)
	require.Len(t, out.Value.Steps, 1)
	assert.Equal(t, "Foundation", out.Value.Steps[0].Title)
	assert.Equal(t, llm.FormatJSONObject, m.requests[0].Format)
}

func TestGeneratePlan_NetworkErrorFallsBack(t *testing.T) {
	c := newTestCoach(&stubModel{err: errNetwork})

	out := c.GeneratePlan(context.Background(), "learn piano", nil)

	require.True(t, out.Fallback)
	var uerr *UpstreamError
	require.ErrorAs(t, out.Cause, &uerr)
	assert.Equal(t, OpPlan, uerr.Op)
	assert.ErrorIs(t, out.Cause, errNetwork)
	assert.Contains(t, out.Value.Title, "learn piano")
	assert.Len(t, out.Value.Steps, 3)
	assert.Equal(t, "learn piano", out.Value.Goal)
}

func TestGeneratePlan_AlwaysWellFormed(t *testing.T) {
	replies := []*stubModel{
		{reply: `{"title":"ok","steps":[{"title":"a","description":"b"}]}`},
		{reply: "total garbage"},
		{reply: `{"title":"no steps"}`},
		{reply: `{"title":"empty","steps":[]}`},
		{reply: ""},
		{err: errNetwork},
		{panic: true},
	}
	for _, goal := range []string{"x", "learn piano", "run a marathon in under four hours"} {
		for _, m := range replies {
			out := newTestCoach(m).GeneratePlan(context.Background(), goal, []ClarificationAnswer{{Question: "q", Answer: "a"}})
			assert.NoError(t, out.Value.Validate())
			assert.NotEmpty(t, out.Value.Steps)
			assert.Equal(t, goal, out.Value.Goal)
		}
	}
}

func TestGeneratePlan_MissingOrEmptyStepsGivesStaticFallback(t *testing.T) {
	for _, reply := range []string{`{"title":"Half","overview":"o"}`, `{"title":"Half","steps":[]}`} {
		out := newTestCoach(&stubModel{reply: reply}).GeneratePlan(context.Background(), "learn piano", nil)

		require.True(t, out.Fallback)
		var nerr *NormalizationError
		assert.ErrorAs(t, out.Cause, &nerr)

		want := FallbackPlan("learn piano")
		want.Goal = "learn piano"
		assert.Equal(t, want, out.Value)
	}
}

func TestGenerateClarifications(t *testing.T) {
	out := newTestCoach(&stubModel{reply: `Here are some questions: ["When?", "Why?"]`}).
		GenerateClarifications(context.Background(), "learn piano")
	require.False(t, out.Fallback)
	assert.Equal(t, []string{"When?", "Why?"}, out.Value)

	for _, reply := range []string{"no brackets at all", "{\"questions\": \"none\"}", ""} {
		out := newTestCoach(&stubModel{reply: reply}).GenerateClarifications(context.Background(), "learn piano")
		assert.True(t, out.Fallback)
		assert.Equal(t, FallbackQuestions(), out.Value)
	}

	out = newTestCoach(&stubModel{err: errNetwork}).GenerateClarifications(context.Background(), "learn piano")
	assert.Equal(t, FallbackQuestions(), out.Value)
}

func TestRegenerateStep(t *testing.T) {
	step := Step{ID: "2", Title: "Phase 2: Growth", Description: "Practice arpeggios", Tips: "slowly"}

	m := &stubModel{reply: `{"title":"Phase 2: Easy Growth","description":"Five minutes of arpeggios"}`}
	out := newTestCoach(m).RegenerateStep(context.Background(), step, "learn piano")
	require.False(t, out.Fallback)
	assert.Equal(t, StepID("2"), out.Value.ID)
	assert.Equal(t, "Phase 2: Easy Growth", out.Value.Title)
	assert.Contains(t, m.requests[0].Prompt, "Practice arpeggios")
}

func TestRegenerateStep_IdentityFallback(t *testing.T) {
	steps := []Step{
		{ID: "1", Title: "Foundation", Description: "Scales"},
		{ID: "7", Title: "Mastery", Description: "Recital", Tips: "breathe", Duration: "1 month", Priority: "high"},
	}
	c := newTestCoach(&stubModel{err: errNetwork})
	for _, s := range steps {
		first := c.RegenerateStep(context.Background(), s, "goal")
		second := c.RegenerateStep(context.Background(), first.Value, "goal")
		assert.True(t, first.Fallback)
		assert.Equal(t, s, first.Value)
		assert.Equal(t, s, second.Value)
	}
}

func TestTextOperations(t *testing.T) {
	ctx := context.Background()
	ok := newTestCoach(&stubModel{reply: "Start with five minutes today."})
	failing := newTestCoach(&stubModel{err: errNetwork})
	blank := newTestCoach(&stubModel{reply: "   "})

	type textOp func(c *Coach) Outcome[string]
	ops := map[string]struct {
		run      textOp
		fallback string
	}{
		"explain": {func(c *Coach) Outcome[string] { return c.ExplainStep(ctx, "Foundation", "") }, FallbackExplanation()},
		"improve": {func(c *Coach) Outcome[string] { return c.ImproveStep(ctx, "Foundation", "d") }, FallbackImprovement()},
		"ask":     {func(c *Coach) Outcome[string] { return c.AskAria(ctx, "What now?", "") }, FallbackAnswer()},
		"next":    {func(c *Coach) Outcome[string] { return c.GetNextMove(ctx, "Foundation", "") }, FallbackNextMove()},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			got := op.run(ok)
			assert.False(t, got.Fallback)
			assert.Equal(t, "Start with five minutes today.", got.Value)

			got = op.run(failing)
			assert.True(t, got.Fallback)
			assert.Equal(t, op.fallback, got.Value)

			got = op.run(blank)
			assert.True(t, got.Fallback)
			assert.ErrorIs(t, got.Cause, ErrEmptyResponse)
			assert.Equal(t, op.fallback, got.Value)
		})
	}
}

func TestCoach_TimeoutFallsBack(t *testing.T) {
	c := newTestCoach(&stubModel{hang: true}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	out := c.ExplainStep(context.Background(), "Foundation", "")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, out.Fallback)
	assert.ErrorIs(t, out.Cause, context.DeadlineExceeded)
}

func TestCoach_PanicIsAbsorbed(t *testing.T) {
	out := newTestCoach(&stubModel{panic: true}).AskAria(context.Background(), "why?", "")
	require.True(t, out.Fallback)
	assert.True(t, strings.Contains(out.Cause.Error(), "provider exploded"))
}

func TestCoach_NilModel(t *testing.T) {
	out := NewCoach(nil, nil, nil).GenerateClarifications(context.Background(), "g")
	assert.True(t, out.Fallback)
	assert.ErrorIs(t, out.Cause, llm.ErrNoProvider)
}

func TestCoach_GuardShortCircuits(t *testing.T) {
	m := &stubModel{err: errNetwork}
	g := NewGuard(2, time.Minute)
	c := newTestCoach(m, WithGuard(g))
	ctx := context.Background()

	c.GetNextMove(ctx, "a", "")
	c.GetNextMove(ctx, "a", "")
	require.Equal(t, 2, m.calls())

	out := c.GetNextMove(ctx, "a", "")
	assert.Equal(t, 2, m.calls(), "guard should skip the upstream")
	assert.ErrorIs(t, out.Cause, ErrCircuitOpen)
	assert.Equal(t, FallbackNextMove(), out.Value)

	// Normalization failures do not trip the guard.
	g2 := NewGuard(1, time.Minute)
	c2 := newTestCoach(&stubModel{reply: "not json"}, WithGuard(g2))
	c2.GeneratePlan(ctx, "g", nil)
	assert.True(t, g2.Allow())
}

func TestCoach_ConcurrentCalls(t *testing.T) {
	c := newTestCoach(&stubModel{reply: `["a"]`}, WithGuard(NewGuard(3, time.Second)))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := c.GenerateClarifications(context.Background(), "g")
			assert.Equal(t, []string{"a"}, out.Value)
		}()
	}
	wg.Wait()
}
