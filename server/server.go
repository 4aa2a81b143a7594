// Package server exposes a Lab over HTTP: a websocket duplex channel for
// multi-agent chat, unary REST endpoints for single agents and images, a
// status endpoint and an optional Prometheus endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hupe1980/agentlab"
	"github.com/hupe1980/agentlab/logging"
)

// RootMessage is returned by GET /.
const RootMessage = "AI Multi-Agent Collaboration Lab backend is running."

// Options configures the Server.
type Options struct {
	// AllowedOrigins lists origins for CORS and websocket upgrades. "*" allows any.
	AllowedOrigins []string
	// DiscardSessions drops a session's history when its channel closes.
	DiscardSessions bool
	// MetricsHandler is mounted at MetricsPath when non-nil.
	MetricsHandler http.Handler
	MetricsPath    string
	// WriteTimeout bounds each websocket frame write.
	WriteTimeout time.Duration
	// Logger defaults to the Lab's logger.
	Logger logging.Logger
}

// Server routes HTTP and websocket traffic into a Lab.
type Server struct {
	lab    *agentlab.Lab
	opts   Options
	router chi.Router
	active atomic.Int64
}

// New creates a Server for lab.
func New(lab *agentlab.Lab, optFns ...func(o *Options)) *Server {
	opts := Options{
		AllowedOrigins: []string{"*"},
		MetricsPath:    "/metrics",
		WriteTimeout:   10 * time.Second,
		Logger:         lab.Logger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{lab: lab, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": RootMessage})
	})
	r.Get("/ws/agents", s.handleWebsocket)
	r.Post("/agent/{agentId}", s.handleAgent)
	r.Post("/generate-image", s.handleGenerateImage)
	r.Get("/agents/status", s.handleStatus)

	if s.opts.MetricsHandler != nil {
		r.Handle(s.opts.MetricsPath, s.opts.MetricsHandler)
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ActiveConnections returns the number of open websocket channels.
func (s *Server) ActiveConnections() int64 { return s.active.Load() }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within grace.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("server listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.opts.Logger.Info("server shutting down", "grace", grace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			if s.allowAny() {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowAny() bool {
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// originAllowed matches origin against the allowed list by full origin or host.
func (s *Server) originAllowed(origin string) bool {
	if s.allowAny() {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Hostname() == "" {
		return false
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if strings.EqualFold(origin, allowed) || strings.EqualFold(parsed.Hostname(), allowed) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
