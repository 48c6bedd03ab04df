// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/sheets"
)

// Ledger is the record-level API the handlers drive.
type Ledger interface {
	Add(ctx context.Context, kind core.Kind, ownerID, ciphertext string) (core.Record, error)
	AddPayload(ctx context.Context, kind core.Kind, ownerID string, p core.Payload) (core.Record, error)
	List(ctx context.Context, kind core.Kind, ownerID string) ([]core.Record, error)
	Entries(ctx context.Context, kind core.Kind, ownerID string, period core.Period) ([]core.Entry, error)
	Summary(ctx context.Context, kind core.Kind, ownerID string, period core.Period) (core.KindSummary, error)
	Get(ctx context.Context, kind core.Kind, ownerID, id string) (core.Record, error)
	Update(ctx context.Context, kind core.Kind, ownerID, id, ciphertext string) (core.Record, error)
	UpdatePayload(ctx context.Context, kind core.Kind, ownerID, id string, p core.Payload) (core.Record, error)
	Delete(ctx context.Context, kind core.Kind, ownerID, id string) error
}

// DashboardBuilder produces the per-owner dashboard snapshot.
type DashboardBuilder interface {
	Dashboard(ctx context.Context, ownerID string) (core.Dashboard, error)
}

// TokenVerifier turns a bearer token into an owner id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Options configures NewServer. Ready may be nil.
type Options struct {
	Addr            string
	Ledger          Ledger
	Dashboard       DashboardBuilder
	Verifier        TokenVerifier
	Renderer        sheets.Renderer
	Ready           func(ctx context.Context) error
	Logger          *log.Logger
	ClientURL       string
	RequestTimeout  time.Duration
	MaxRequestBytes int64
	RateLimit       int
}

type Server struct {
	http.Server
	ledger          Ledger
	dashboard       DashboardBuilder
	verifier        TokenVerifier
	renderer        sheets.Renderer
	ready           func(ctx context.Context) error
	logger          *log.Logger
	requestTimeout  time.Duration
	maxRequestBytes int64
	started         time.Time

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	ipExtractor     *security.IPExtractor

	shutdownOnce sync.Once
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:          opts.Ledger,
		dashboard:       opts.Dashboard,
		verifier:        opts.Verifier,
		renderer:        opts.Renderer,
		ready:           opts.Ready,
		logger:          logger,
		requestTimeout:  opts.RequestTimeout,
		maxRequestBytes: opts.MaxRequestBytes,
		started:         time.Now(),
		rateLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		ipExtractor:     security.NewIPExtractor(),
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.ipExtractor.ExtractClientIP)

	s.Addr = opts.Addr
	s.Handler = s.routes(opts.ClientURL)
	s.ReadHeaderTimeout = 10 * time.Second
	s.ReadTimeout = 30 * time.Second
	s.WriteTimeout = 60 * time.Second
	s.IdleTimeout = 120 * time.Second
	return s
}

func (s *Server) routes(clientURL string) http.Handler {
	r := chi.NewRouter()
	r.Use(s.traceMiddleware.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(security.CORS(clientURL))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(s.rateLimiter.Middleware(s.ipExtractor.ExtractClientIP, s.handleRateLimited))
		api.Use(s.authMiddleware)
		api.Use(s.timeoutMiddleware)

		api.Get("/dashboard", s.handleDashboard)

		api.Route("/{kind}", func(kr chi.Router) {
			kr.Use(kindMiddleware)
			kr.Post("/add", s.handleAdd)
			kr.Get("/get", s.handleList)
			kr.Get("/entries", s.handleEntries)
			kr.Get("/summary", s.handleSummary)
			kr.Get("/downloadexcel", s.handleDownload)
			kr.Get("/{id}", s.handleGet)
			kr.Put("/{id}", s.handleUpdate)
			kr.Delete("/{id}", s.handleDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found", log.ErrorTypeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed", log.ErrorTypeValidation)
	})
	return r
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
