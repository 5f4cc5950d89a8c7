// Package server exposes a browsing session over HTTP: JSON endpoints for the
// page and search actions, and a Server-Sent Events stream of state changes.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/five82/dex/internal/catalog"
	"github.com/five82/dex/internal/state"
)

const shutdownTimeout = 10 * time.Second

// Browser is the session controller driven by the API. *catalog.Browser
// satisfies it.
type Browser interface {
	NextPage() bool
	PrevPage() bool
	FirstPage() bool
	LastPage() bool
	GoToPage(n int) bool
	Retry()
	ClearSearch()
	SearchNow(ctx context.Context, query string) catalog.Outcome
}

// Server routes API requests to a Browser and reads state from a Store.
type Server struct {
	browser Browser
	store   *state.Store
	logger  *slog.Logger
	router  chi.Router
}

// New builds the router. logger may be nil.
func New(browser Browser, store *state.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{browser: browser, store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.getState)
		r.Get("/events", s.streamEvents)

		r.Post("/search", s.search)
		r.Delete("/search", s.clearSearch)
		r.Post("/retry", s.retry)

		r.Post("/pages/next", s.movePage(browser.NextPage))
		r.Post("/pages/prev", s.movePage(browser.PrevPage))
		r.Post("/pages/first", s.movePage(browser.FirstPage))
		r.Post("/pages/last", s.movePage(browser.LastPage))
		r.Post("/pages/{n}", s.goToPage)
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
// Open event streams end with ctx.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		s.logger.Info("http server stopped")
		return nil
	})
	return g.Wait()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
