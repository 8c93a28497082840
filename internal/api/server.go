// Package api provides the HTTP API server and handlers for Mimir's Well.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mimirswell/mimirswell-server/internal/http/response"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Options holds the HTTP-facing settings that are not services.
type Options struct {
	// CORSOrigins lists allowed browser origins. Empty allows none.
	CORSOrigins []string
	// CronSecret guards the inactivity scan trigger. Empty disables the check.
	CronSecret string
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	opts     Options
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:    st,
		services: services,
		opts:     opts,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware()
	s.api = humachi.New(s.router, newHumaConfig("Mimir's Well API"))
	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

// newHumaConfig builds the huma configuration shared by the server and tests.
func newHumaConfig(title string) huma.Config {
	config := huma.DefaultConfig(title, APIVersion)
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
		"cookie": {
			Type: "apiKey",
			In:   "cookie",
			Name: "token",
		},
	}
	config.Transformers = append(config.Transformers, EnvelopeTransformer)
	return config
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(clientIPMiddleware)

	var verifier tokenVerifier
	if s.services.Auth != nil {
		verifier = s.services.Auth
	}
	s.router.Use(authMiddleware(verifier))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
}

// registerRoutes registers every huma operation.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProgressRoutes()
	s.registerStatsRoutes()
	s.registerCronRoutes()
	s.registerLibraryRoutes()
	s.registerCompletionRoutes()
	s.registerBookRoutes()
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
