package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ummehani3x/ai-goal-planner-aria/internal/agent"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/gateway"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/governance"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/llm"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/observability"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/store"
	"github.com/Ummehani3x/ai-goal-planner-aria/pkg/config"
)

const heartbeatInterval = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Aria HTTP API. SIGINT or SIGTERM drains in-flight requests before exiting.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, cmd.OutOrStdout())
}

func serve(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger, err := observability.NewLogger(observability.Options{
		Level:      cfg.Logging.Level,
		LLMLogPath: cfg.Logging.LLMLogPath,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	inst := observability.NewInstance()
	observability.PrintBanner(out, inst, cfg.Addr())

	a, err := newApp(ctx, cfg, inst, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	go observability.RunHeartbeat(ctx, a.status, logger, heartbeatInterval)

	err = a.gateway.Start(ctx)
	logger.LogStartup("stopped", map[string]any{"instanceId": inst.ID})
	return err
}

// app holds the wired components of one server process.
type app struct {
	gateway *gateway.HTTPGateway
	coach   *agent.Coach
	plans   *store.StrategyStore[agent.Plan]
	status  *observability.Status
	repo    *store.PlanRepository
}

func newApp(ctx context.Context, cfg *config.Config, inst observability.Instance, logger *observability.Logger) (*app, error) {
	a := &app{status: observability.NewStatus(inst)}

	// Database is optional: without a path plans live only in memory.
	var backend store.Backend
	if cfg.Memory.Path != "" {
		repo, err := store.NewPlanRepository(cfg.Memory.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open plan database: %w", err)
		}
		a.repo = repo
		backend = repo
		logger.LogStartup("plan database ready", map[string]any{"path": cfg.Memory.Path})
	} else {
		logger.LogStartup("plan database not configured, running in stateless mode", nil)
	}

	a.plans = store.NewStrategyStore[agent.Plan](store.Options{
		MaxEntries: cfg.Store.MaxEntries,
		TTL:        cfg.Store.TTL,
		Backend:    backend,
		Instance:   inst,
		Logger:     logger,
	})

	// Missing credentials are not fatal; every operation then serves its fallback.
	var model llm.Generator
	name, p := cfg.GetDefaultProvider()
	g, err := llm.New(ctx, name, llm.ProviderOptions{APIKey: p.APIKey, Model: p.Model, BaseURL: p.BaseURL})
	if err != nil {
		logger.Zap().Warn("no upstream model, serving fallbacks only",
			zap.String("provider", name),
			zap.Error(err),
		)
	} else {
		model = g
		logger.LogStartup("upstream model ready", map[string]any{"provider": name, "model": p.Model})
	}

	prompts := agent.NewPromptManager(cfg.Prompts.Directory)
	if err := prompts.LoadPersona(); err != nil {
		a.Close()
		return nil, err
	}

	a.coach = agent.NewCoach(model, prompts, logger,
		agent.WithTimeout(cfg.Server.UpstreamTimeout),
		agent.WithGuard(agent.NewGuard(cfg.Guard.MaxFailures, cfg.Guard.Cooldown)),
	)

	policy := governance.NewDefaultPolicyEngine(cfg.Validation.MaxInputChars)
	for _, pattern := range cfg.Validation.DeniedPatterns {
		if err := policy.DenyPattern(pattern); err != nil {
			a.Close()
			return nil, fmt.Errorf("invalid validation.denied_patterns entry %q: %w", pattern, err)
		}
	}

	a.gateway = gateway.NewHTTPGateway(gateway.Config{
		Addr:        cfg.Addr(),
		CORSOrigins: cfg.Server.CORSOrigins,
	}, a.coach, a.plans, policy, a.status, logger)
	return a, nil
}

func (a *app) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}
