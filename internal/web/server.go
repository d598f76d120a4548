// Package web serves the sync hook: after an editor saves a source file, it
// calls POST /api/tables/{key}/sync and the table is re-applied in its own
// transaction. Parity and version endpoints let tooling check the result.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/refsync/internal/config"
	"github.com/JonMunkholm/refsync/internal/core"
	mw "github.com/JonMunkholm/refsync/internal/web/middleware"
)

// Server is the sync hook HTTP server.
type Server struct {
	reg    *core.Registry
	loader core.SourceLoader
	store  core.Store
	syncer *core.Syncer
	cfg    *config.Config
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server. The store must stay open until Shutdown returns.
func NewServer(reg *core.Registry, loader core.SourceLoader, store core.Store, cfg *config.Config) *Server {
	s := &Server{
		reg:    reg,
		loader: loader,
		store:  store,
		syncer: core.NewSyncer(reg, loader, store, cfg.Sync.Provenance),
		cfg:    cfg,
		router: chi.NewRouter(),
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
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.handleListTables)
		r.Post("/tables/{key}/sync", s.handleSyncTable)
		r.Get("/parity", s.handleParity)
		r.Get("/versions", s.handleVersions)
	})
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.cfg.Server.Addr(),
		Handler:     s.router,
		ReadTimeout: s.cfg.Server.ReadTimeout,
		IdleTimeout: s.cfg.Server.IdleTimeout,
	}

	slog.Info("server starting", "addr", s.server.Addr)
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

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
