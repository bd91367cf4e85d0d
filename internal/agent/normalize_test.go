package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstArraySpan(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", `["a","b"]`, `["a","b"]`, true},
		{"prose around", "Sure! Here you go:\n[\"a\"]\nGood luck.", `["a"]`, true},
		{"nested", `x [["a"],["b"]] y [1]`, `[["a"],["b"]]`, true},
		{"bracket in string", `["what about ] this?", "ok"]`, `["what about ] this?", "ok"]`, true},
		{"escaped quote", `["say \"hi]\"", "x"]`, `["say \"hi]\"", "x"]`, true},
		{"none", "no list here", "", false},
		{"unterminated", `["a", "b"`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := firstArraySpan(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseQuestions(t *testing.T) {
	qs, err := ParseQuestions("```json\n[\"What is your timeline?\", \"  \", \"Budget?\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"What is your timeline?", "Budget?"}, qs)

	for _, raw := range []string{
		"I can't help with that.",
		`[1, 2, 3]`,
		`[]`,
		`["unterminated"`,
		"",
	} {
		_, err := ParseQuestions(raw)
		var nerr *NormalizationError
		assert.ErrorAs(t, err, &nerr, "input %q", raw)
	}
}

func TestParsePlan_FencedPayload(t *testing.T) {
	raw := "```json\n{\"title\":\"Piano Basics\",\"overview\":\"...\",\"steps\":[{\"id\":\"1\",\"title\":\"Foundation\",\"description\":\"Practice scales\"}]}\n```"

	p, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, "Piano Basics", p.Title)
	assert.Equal(t, "...", p.Overview)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, StepID("1"), p.Steps[0].ID)
	assert.Equal(t, "Practice scales", p.Steps[0].Description)
}

func TestParsePlan_NumericIDsAndOrder(t *testing.T) {
	raw := `{"title":"T","steps":[
		{"id":1,"title":"Foundation","description":"a","tips":"why"},
		{"id":2,"title":"Growth","description":"b"},
		{"id":3,"title":"Mastery","description":"c","duration":"2 weeks","priority":"high"}]}`

	p, err := ParsePlan(raw)
	require.NoError(t, err)
	require.Len(t, p.Steps, 3)
	assert.Equal(t, []string{"Foundation", "Growth", "Mastery"}, []string{p.Steps[0].Title, p.Steps[1].Title, p.Steps[2].Title})
	assert.Equal(t, StepID("3"), p.Steps[2].ID)
	assert.Equal(t, "2 weeks", p.Steps[2].Duration)
}

func TestParsePlan_RejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"garbage":          "the model is having a bad day",
		"missing steps":    `{"title":"T","overview":"o"}`,
		"empty steps":      `{"title":"T","steps":[]}`,
		"steps not list":   `{"title":"T","steps":"do things"}`,
		"missing title":    `{"steps":[{"title":"a","description":"b"}]}`,
		"blank title":      `{"title":"  ","steps":[{"title":"a","description":"b"}]}`,
		"step no desc":     `{"title":"T","steps":[{"title":"a"}]}`,
		"step empty title": `{"title":"T","steps":[{"title":"","description":"b"}]}`,
		"array payload":    `[{"title":"T"}]`,
		"trailing prose":   `{"title":"T","steps":[{"title":"a","description":"b"}]} hope this helps`,
		"only fences":      "```json\n```",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := ParsePlan(raw)
			var nerr *NormalizationError
			require.ErrorAs(t, err, &nerr)
			assert.Equal(t, "plan", nerr.Kind)
			assert.Empty(t, p.Steps)
		})
	}
}

func TestParsePlan_IgnoresModelOwnedFields(t *testing.T) {
	p, err := ParsePlan(`{"strategyId":"evil","goal":"other","title":"T","steps":[{"title":"a","description":"b"}]}`)
	require.NoError(t, err)
	assert.Empty(t, p.StrategyID)
	assert.Empty(t, p.Goal)
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("```\n{\"id\":\"2\",\"title\":\"Easier Growth\",\"description\":\"Ten minutes a day\",\"tips\":\"Go slow\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, Step{ID: "2", Title: "Easier Growth", Description: "Ten minutes a day", Tips: "Go slow"}, s)

	_, err = ParseStep(`{"title":"only a title"}`)
	var nerr *NormalizationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "step", nerr.Kind)
}

func TestParseStep_KeepsFencesInsideValues(t *testing.T) {
	raw := "```json\n{\"title\":\"Automate practice log\",\"description\":\"Run ```python log.py``` after each session\"}\n```"
	s, err := ParseStep(raw)
	require.NoError(t, err)
	assert.Equal(t, "Run ```python log.py``` after each session", s.Description)

	assert.Equal(t, `{"a":"b"}`, stripCodeFences("  ```JSON\r\n{\"a\":\"b\"}\r\n```  "))
	assert.Equal(t, `{"a":"b"}`, stripCodeFences(`{"a":"b"}`))
}

func TestParseText(t *testing.T) {
	out, err := ParseText("  Keep going.  ")
	require.NoError(t, err)
	assert.Equal(t, "  Keep going.  ", out)

	_, err = ParseText(" \n\t")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestStepIDUnmarshal(t *testing.T) {
	var s Step
	require.Error(t, s.ID.UnmarshalJSON([]byte(`{"x":1}`)))
	require.NoError(t, s.ID.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, StepID(""), s.ID)
	require.NoError(t, s.ID.UnmarshalJSON([]byte(`4.5`)))
	assert.Equal(t, StepID("4.5"), s.ID)
}
