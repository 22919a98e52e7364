// Package web provides the HTTP API for contact imports.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/contactimport/internal/config"
	"github.com/JonMunkholm/contactimport/internal/core"
	mw "github.com/JonMunkholm/contactimport/internal/web/middleware"
)

// Importer runs one import. *core.Service satisfies it.
type Importer interface {
	Import(ctx context.Context, data []byte, fileName string, mode core.ImportMode) (*core.ImportReport, error)
	LimiterStatus() core.LimiterStatus
}

// ReportStore keeps finished reports for later lookup.
type ReportStore interface {
	Save(ctx context.Context, report *core.ImportReport) error
	Get(ctx context.Context, id string) (*core.ImportReport, error)
}

// EventPublisher announces finished imports. It may be nil.
type EventPublisher interface {
	PublishImportFinished(ctx context.Context, report *core.ImportReport) error
}

// Server is the HTTP server for the contact import API.
type Server struct {
	importer Importer
	reports  ReportStore
	events   EventPublisher
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance.
func NewServer(importer Importer, reports ReportStore, events EventPublisher, cfg *config.Config) *Server {
	s := &Server{
		importer: importer,
		reports:  reports,
		events:   events,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)

	if origins := s.cfg.Security.AllowedOrigins; len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Location", "Retry-After"},
			MaxAge:         300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/modes", s.handleListModes)
		r.Post("/imports", s.handleImport)
		r.Get("/imports/{importID}", s.handleGetImport)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
