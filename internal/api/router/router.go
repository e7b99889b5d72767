package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/tomplumbs/landing-page/internal/http/middleware"
	"github.com/tomplumbs/landing-page/internal/leads"
	"github.com/tomplumbs/landing-page/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	MetricsHandler     http.Handler
	StaticHandler      http.Handler
	CORSAllowedOrigins []string

	// Submission rate limiting (optional)
	SubmitLimiter httpmiddleware.Limiter
	RateLimit     httpmiddleware.RateLimitOptions

	// TrustProxyHeaders resolves the client address from forwarding headers.
	// Off, the socket peer is the client.
	TrustProxyHeaders bool

	// VerboseLogging adds chi's plain-text access log (development).
	VerboseLogging bool
	StartedAt      time.Time
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	if cfg.VerboseLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	started := cfg.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	r.Get("/health", healthHandler(started))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		submit := http.Handler(http.HandlerFunc(cfg.LeadsHandler.SubmitLead))
		if cfg.SubmitLimiter != nil {
			submit = httpmiddleware.RateLimit(cfg.SubmitLimiter, cfg.RateLimit)(submit)
		}
		api.Method(http.MethodPost, "/submit-lead", submit)
		api.Get("/test", cfg.LeadsHandler.APITest)
		api.Get("/validation-rules", cfg.LeadsHandler.ValidationRules)
		if cfg.StaticHandler != nil {
			api.NotFound(pageFallback(cfg.StaticHandler))
		}
	})

	// Everything else is the landing page.
	if cfg.StaticHandler != nil {
		r.Get("/*", cfg.StaticHandler.ServeHTTP)
		r.Head("/*", cfg.StaticHandler.ServeHTTP)
	}

	return r
}

// pageFallback serves the landing page for unknown GET and HEAD paths.
func pageFallback(static http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		static.ServeHTTP(w, r)
	}
}
