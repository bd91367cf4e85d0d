package agent

// Fallback values served whenever an operation cannot produce a genuine
// result. They read like normal coaching output.

const (
	fallbackExplanation = "This phase is crucial for building momentum. Focus on taking the first actionable step today, because consistency beats perfection."
	fallbackImprovement = "Consider breaking this phase into smaller daily tasks. Set a specific time each day to work on it, and track your progress visually so momentum builds."
	fallbackAnswer      = "Focus on your immediate task for now. Pick the smallest concrete action you can finish today and do it; consistency is what moves this goal forward."
	fallbackNextMove    = "Focus on completing the current phase with consistency. Small daily actions compound into major results."
)

// FallbackQuestions returns the default clarification questions.
func FallbackQuestions() []string {
	return []string{
		"What is your target timeline?",
		"What resources do you have available?",
		"What is your primary motivation?",
	}
}

// FallbackPlan returns the default three-phase plan for goal.
func FallbackPlan(goal string) Plan {
	return Plan{
		Title:    "Strategy for: " + goal,
		Overview: "I've designed a focused approach to help you achieve this goal with clarity and momentum.",
		Steps: []Step{
			{
				ID:          "1",
				Title:       "Phase 1: Foundation",
				Description: "Break down the main goal into smaller, measurable objectives using the SMART framework.",
				Tips:        "Why this matters: Without clear markers of success, you'll lose momentum early on. Success looks like having 3-5 specific, measurable outcomes defined. Common mistake: Making goals too vague or too ambitious.",
			},
			{
				ID:          "2",
				Title:       "Phase 2: Resource Gathering",
				Description: "Identify and bookmark the tools, tutorials, and information needed to achieve each objective.",
				Tips:        "Why this matters: Efficiency comes from using the right tools for the job. Success looks like having a curated list of 5-10 high-quality resources. Common mistake: Information overload. Focus on quality over quantity.",
			},
			{
				ID:          "3",
				Title:       "Phase 3: Execution & Iteration",
				Description: "Start with the first objective and iterate based on feedback and results.",
				Tips:        "Why this matters: Action beats planning every time. Success looks like completing your first milestone within 1-2 weeks. Common mistake: Perfectionism. Ship early, improve later.",
			},
		},
	}
}

// FallbackStep is the identity: the step comes back unchanged.
func FallbackStep(step Step) Step {
	return step
}

func FallbackExplanation() string { return fallbackExplanation }
func FallbackImprovement() string { return fallbackImprovement }
func FallbackAnswer() string      { return fallbackAnswer }
func FallbackNextMove() string    { return fallbackNextMove }
