package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ummehani3x/ai-goal-planner-aria/internal/agent"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/observability"
	"github.com/Ummehani3x/ai-goal-planner-aria/pkg/config"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "aria dev\n", out.String())
}

func TestServeCommand_RejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "")
	rootCmd.SetArgs([]string{"serve", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--port", "70000"})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetErr(nil); portFlag = 0 })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestNewApp_FallbackOnlyWithDurableStore(t *testing.T) {
	cfg := config.Default()
	cfg.Memory.Path = filepath.Join(t.TempDir(), "plans.db")
	cfg.Prompts.Directory = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Prompts.Directory, "persona.md"), []byte("You are Aria, a calm coach."), 0o644))

	inst := observability.NewInstance()
	a, err := newApp(context.Background(), cfg, inst, observability.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	// No API key is configured, so the coach has no model.
	assert.Nil(t, a.coach.Model)
	assert.Equal(t, "You are Aria, a calm coach.", a.coach.Prompts.Persona())

	req := httptest.NewRequest(http.MethodPost, "/api/strategy/generate", strings.NewReader(`{"goal":"learn piano"}`))
	rec := httptest.NewRecorder()
	a.gateway.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var plan agent.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "Strategy for: learn piano", plan.Title)
	require.NotEmpty(t, plan.StrategyID)

	n, err := a.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, a.plans.Info().Durable)
}

func TestNewApp_Stateless(t *testing.T) {
	cfg := config.Default()
	a, err := newApp(context.Background(), cfg, observability.NewInstance(), observability.NewNopLogger())
	require.NoError(t, err)
	assert.Nil(t, a.repo)
	assert.False(t, a.plans.Info().Durable)
	assert.NoError(t, a.Close())
}

func TestNewApp_InvalidDeniedPattern(t *testing.T) {
	cfg := config.Default()
	cfg.Validation.DeniedPatterns = []string{"("}
	_, err := newApp(context.Background(), cfg, observability.NewInstance(), observability.NewNopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied_patterns")
}
