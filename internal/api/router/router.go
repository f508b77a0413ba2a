package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alltechdigital/leads-api/internal/contact"
	"github.com/alltechdigital/leads-api/internal/csrf"
	httpmiddleware "github.com/alltechdigital/leads-api/internal/http/middleware"
	"github.com/alltechdigital/leads-api/internal/ratelimit"
	"github.com/alltechdigital/leads-api/internal/security"
	"github.com/alltechdigital/leads-api/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ContactHandler     *contact.Handler
	CSRFHandler        *csrf.Handler
	Events             *security.EventLogger
	Limiter            *ratelimit.Limiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// MaxBodyBytes caps POST payloads scanned for threats. Zero uses the
	// 10 KB form default.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 10 * 1024

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(httpmiddleware.SecurityHeaders)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins, cfg.Events))
	}

	// Liveness probe and scrape endpoint sit outside the security chain so
	// load balancers and Prometheus can hit them with any user agent.
	r.Get("/health", cfg.ContactHandler.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Header sanity runs before the rate limit so scripted clients are
	// turned away without consuming quota.
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.ValidateClient(cfg.Events))
		if cfg.Limiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.Limiter, cfg.Events))
		}
		api.Use(httpmiddleware.ThreatScan(maxBody, cfg.Events))

		api.Get("/csrf", cfg.CSRFHandler.Issue)

		api.Route("/contact", func(c chi.Router) {
			c.Get("/", cfg.ContactHandler.Health)
			c.With(httpmiddleware.CSRF(cfg.CSRFHandler, cfg.Events)).Post("/", cfg.ContactHandler.Submit)
		})
	})

	return r
}
