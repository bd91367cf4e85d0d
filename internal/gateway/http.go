package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Ummehani3x/ai-goal-planner-aria/internal/agent"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/governance"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/observability"
	"github.com/Ummehani3x/ai-goal-planner-aria/internal/store"
)

const shutdownTimeout = 15 * time.Second

var _ Gateway = (*HTTPGateway)(nil)

// Config holds HTTP gateway configuration.
type Config struct {
	Addr        string // listen address, e.g. "0.0.0.0:5000"
	CORSOrigins []string
}

// HTTPGateway serves the Aria API over HTTP.
type HTTPGateway struct {
	config  Config
	coach   *agent.Coach
	plans   *store.StrategyStore[agent.Plan]
	policy  governance.PolicyEngine
	status  *observability.Status
	logger  *observability.Logger
	httpSrv *http.Server

	now   func() time.Time
	newID func() string
}

func NewHTTPGateway(cfg Config, coach *agent.Coach, plans *store.StrategyStore[agent.Plan], policy governance.PolicyEngine, status *observability.Status, logger *observability.Logger) *HTTPGateway {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if status == nil {
		status = observability.NewStatus(observability.NewInstance())
	}
	if plans == nil {
		plans = store.NewStrategyStore[agent.Plan](store.Options{Instance: status.Instance, Logger: logger})
	}
	if policy == nil {
		policy = governance.NewDefaultPolicyEngine(0)
	}

	g := &HTTPGateway{
		config: cfg,
		coach:  coach,
		plans:  plans,
		policy: policy,
		status: status,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/goal", g.handleGoal)
	mux.HandleFunc("POST /api/strategy/generate", g.handleGenerateStrategy)
	mux.HandleFunc("POST /api/strategy/step/regenerate", g.handleRegenerateStep)
	mux.HandleFunc("GET /api/strategy/{id}", g.handleGetStrategy)
	mux.HandleFunc("GET /api/strategies/info", g.handleStrategiesInfo)
	mux.HandleFunc("GET /api/strategies/recent", g.handleRecentStrategies)
	mux.HandleFunc("POST /api/aria/explain", g.handleExplain)
	mux.HandleFunc("POST /api/aria/improve", g.handleImprove)
	mux.HandleFunc("POST /api/aria/ask", g.handleAsk)
	mux.HandleFunc("POST /api/aria/next", g.handleNextMove)
	mux.HandleFunc("GET /health", g.handleHealth)

	g.httpSrv = &http.Server{
		Handler:      g.logRequests(cors(mux, cfg.CORSOrigins)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return g
}

// Handler returns the full middleware chain, for tests and embedding.
func (g *HTTPGateway) Handler() http.Handler {
	return g.httpSrv.Handler
}

// Start listens on the configured address and blocks until ctx is done or
// the server fails. A cancelled ctx triggers a graceful Stop.
func (g *HTTPGateway) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Addr)
	if err != nil {
		return err
	}
	return g.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (g *HTTPGateway) Serve(ctx context.Context, ln net.Listener) error {
	stopped := make(chan error, 1)
	stop := context.AfterFunc(ctx, func() { stopped <- g.Stop() })

	g.logger.LogStartup("listening", map[string]any{"addr": ln.Addr().String()})
	err := g.httpSrv.Serve(ln)
	if !stop() && errors.Is(err, http.ErrServerClosed) {
		// Shutdown was triggered by ctx; wait for the drain to finish.
		return <-stopped
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gives in-flight requests time to drain, then closes the server.
func (g *HTTPGateway) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return g.httpSrv.Shutdown(ctx)
}

// cors allows browser callers from the configured origins. "*" or an empty
// list allows any origin. Preflight requests end here with 204.
func cors(next http.Handler, origins []string) http.Handler {
	anyOrigin := len(origins) == 0 || slices.Contains(origins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if anyOrigin {
			h.Set("Access-Control-Allow-Origin", "*")
		} else if origin := r.Header.Get("Origin"); origin != "" && slices.Contains(origins, origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (g *HTTPGateway) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := g.status.Begin()
		defer done()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		g.logger.LogRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
