// Package api provides the HTTP REST shell over the data pipeline.
//
// It is a thin presentation collaborator: each handler validates input,
// invokes the repositories and the series engine, and renders JSON. All
// pipeline semantics (caching, clamping, error taxonomy) live below it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/finboardhq/finboard/internal/config"
	"github.com/finboardhq/finboard/internal/datasource"
	"github.com/finboardhq/finboard/internal/series"
	"github.com/finboardhq/finboard/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	cfg        *config.Config
	components *datasource.Components
	quotes     *datasource.Yahoo
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) *Server {
	components := datasource.NewComponents(time.Duration(cfg.Cache.ComponentsTTL) * time.Second)
	if cfg.Sources.ComponentsURL != "" {
		components.URL = cfg.Sources.ComponentsURL
	}

	quotes := datasource.NewYahoo(time.Duration(cfg.Cache.QuotesTTL) * time.Second)
	if cfg.Sources.QuotesBaseURL != "" {
		quotes.BaseURL = cfg.Sources.QuotesBaseURL
	}

	srv := &Server{
		cfg:        cfg,
		components: components,
		quotes:     quotes,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/components", s.handleComponents)
		r.Get("/quotes/{symbol}", s.handleQuotes)
		r.Get("/view/{symbol}", s.handleView)
		r.Get("/view/{symbol}/describe", s.handleDescribe)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": "dev",
		},
	})
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	list, err := s.components.Fetch(ctx)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    list,
	})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	qs, err := s.fetchKnownSymbol(ctx, symbol)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    qs,
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	table := s.buildView(w, r)
	if table == nil {
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    table,
	})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	table := s.buildView(w, r)
	if table == nil {
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    series.Describe(table),
	})
}

// buildView resolves the shared {symbol}?window=&sma= parameters for the
// view endpoints. On failure it writes the error response and returns nil.
func (s *Server) buildView(w http.ResponseWriter, r *http.Request) *models.Table {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return nil
	}

	window := s.cfg.View.DefaultWindow
	if ws := r.URL.Query().Get("window"); ws != "" {
		n, err := strconv.Atoi(ws)
		if err != nil {
			writeError(w, http.StatusBadRequest, "window must be an integer")
			return nil
		}
		window = n
	}

	var overlays []series.OverlaySpec
	for _, ps := range r.URL.Query()["sma"] {
		p, err := strconv.Atoi(ps)
		if err != nil {
			writeError(w, http.StatusBadRequest, "sma must be an integer")
			return nil
		}
		overlays = append(overlays, series.OverlaySpec{Period: p})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	qs, err := s.fetchKnownSymbol(ctx, symbol)
	if err != nil {
		writeFetchError(w, err)
		return nil
	}

	return series.WindowedView(qs, window, overlays)
}

// fetchKnownSymbol checks the symbol against the components mapping before
// hitting the quote provider, so a typo never burns a provider call.
func (s *Server) fetchKnownSymbol(ctx context.Context, symbol string) (*models.QuoteSeries, error) {
	list, err := s.components.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !list.Has(symbol) {
		return nil, datasource.ErrSymbolNotFound
	}
	return s.quotes.Fetch(ctx, symbol)
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// writeFetchError maps pipeline errors to HTTP statuses: unknown symbols to
// 404, everything upstream (transport, HTTP status, schema changes) to 502.
func writeFetchError(w http.ResponseWriter, err error) {
	if errors.Is(err, datasource.ErrSymbolNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}
