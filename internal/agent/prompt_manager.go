package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultPersona = "You are Aria, an expert Strategy Architect and execution coach."

const coachVoice = "Speak like a calm execution coach, not an assistant."

// PromptManager renders the instruction text for every operation. Rendering
// is pure; the only I/O is the optional persona override read at load time.
type PromptManager struct {
	Directory string
	persona   string
}

// NewPromptManager returns a manager using the built-in persona.
func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir, persona: defaultPersona}
}

// LoadPersona replaces the persona with persona.md from Directory when the
// file exists. A missing directory or file keeps the built-in persona.
func (pm *PromptManager) LoadPersona() error {
	if pm.Directory == "" {
		return nil
	}
	path := filepath.Join(pm.Directory, "persona.md")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read persona prompt: %w", err)
	}
	if p := strings.TrimSpace(string(data)); p != "" {
		pm.persona = p
	}
	return nil
}

func (pm *PromptManager) Persona() string {
	return pm.persona
}

func (pm *PromptManager) ClarificationPrompt(goal string) string {
	return fmt.Sprintf(`%s

Ask 3-5 short, conversational clarifying questions to make this goal actionable: "%s".

Questions should feel like a coaching session (e.g., "Got it. To start, what's your target timeline for this?").
Return ONLY a JSON array of strings.`, pm.persona, goal)
}

func (pm *PromptManager) PlanPrompt(goal string, answers []ClarificationAnswer) string {
	var b strings.Builder
	b.WriteString(pm.persona)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "User Goal: \"%s\"\n", goal)
	if len(answers) > 0 {
		b.WriteString("Clarifications:\n")
		for _, a := range answers {
			fmt.Fprintf(&b, "- Q: %s A: %s\n", a.Question, a.Answer)
		}
	}
	b.WriteString(`
Create a comprehensive, GUIDANCE-FOCUSED strategy that feels like a personal coach.

You MUST return ONLY valid JSON in this exact format:
{
  "title": "Clear, inspiring strategy title",
  "overview": "A warm, motivating overview from Aria explaining the approach and why it will work (2-3 sentences)",
  "steps": [
    {
      "id": "1",
      "title": "Phase 1: Foundation",
      "description": "Detailed description of what to do in this phase. Focus on ACTIONABLE steps, not vague advice.",
      "tips": "WHY this phase matters, what success looks like, and common mistakes to avoid."
    }
  ]
}

CRITICAL REQUIREMENTS:
- Each step MUST explain WHY it matters, not just WHAT to do
- Include "what success looks like" in tips
- Mention common mistakes or pitfalls
- Use phases (Foundation, Growth, Mastery) instead of generic "Step 1, Step 2"
- Be specific and actionable, never vague
- 4-6 steps maximum for focus

Do not include markdown formatting or backticks.`)
	return b.String()
}

func (pm *PromptManager) StepRewritePrompt(step Step, goalContext string) string {
	current, _ := json.Marshal(step)
	return fmt.Sprintf(`%s

Rewrite ONLY this step to be simpler and more beginner-friendly without changing the overall plan.
Current Step: %s
Goal Context: %s

Return ONLY a JSON object for the single step with this exact shape:
{"id": "%s", "title": "...", "description": "...", "tips": "..."}`, pm.persona, current, goalContext, step.ID)
}

func (pm *PromptManager) ExplainPrompt(title, description string) string {
	return fmt.Sprintf(`%s

The user is working on this phase: "%s"
Description: %s

Explain this phase in detail. Give them:
1. WHY this phase is critical to their success
2. Specific, actionable implementation advice
3. Common pitfalls to avoid
4. What success looks like at this stage

Keep it conversational, motivating, and under 150 words.
%s`, pm.persona, title, orDefault(description, "No additional details"), coachVoice)
}

func (pm *PromptManager) ImprovePrompt(title, description string) string {
	return fmt.Sprintf(`%s

The user is working on this phase: "%s"
Description: %s

Suggest 2-3 specific ways to optimize or improve this phase. Focus on:
1. Making it more efficient
2. Reducing friction or obstacles
3. Increasing chances of success

Be specific and actionable. Keep it under 120 words.
%s`, pm.persona, title, orDefault(description, "No additional details"), coachVoice)
}

func (pm *PromptManager) AskPrompt(question, title string) string {
	return fmt.Sprintf(`%s

The user is working on: "%s"
Their question: "%s"

Provide a motivating, insightful, and practical answer.
If they ask "What should I do next?", give them a very specific, high-momentum task.
Be conversational and supportive. Keep it under 100 words.`, pm.persona, orDefault(title, "their goal"), question)
}

func (pm *PromptManager) NextMovePrompt(title, description string) string {
	return fmt.Sprintf(`%s

Current phase: "%s"
Description: %s

Give ONE clear next action:
- Short (1-2 sentences)
- Practical and actionable TODAY
- Encouraging
- Specific to this phase

Keep it under 80 words.
%s`, pm.persona, title, orDefault(description, "No details"), coachVoice)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
