// Package coordinator implements the coordinator's HTTP+JSON API (C8):
// schedule lookup, instance registration/heartbeat/deregistration, and
// health probes, per spec §4.8.
package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"newsingest/internal/entity"
	"newsingest/internal/observability/logging"
	"newsingest/internal/registry"
	"newsingest/internal/requestid"
	"newsingest/internal/scheduler"
)

// StartupTimeout is how long the server allows for initialization before
// /health/startup starts reporting permanent failure, spec §5.
const StartupTimeout = 60 * time.Second

// ShutdownGrace is how long Shutdown drains in-flight requests before
// forcing close, spec §5: "drains in-flight ones up to a 10s deadline".
const ShutdownGrace = 10 * time.Second

// Server is the coordinator's HTTP API, wiring internal/registry and
// internal/scheduler behind the endpoint table in spec §4.8.
type Server struct {
	httpServer *http.Server
	registry   *registry.Registry
	trigger    *scheduler.Trigger
	instances  []entity.CrawlerInstance
	authToken  string
	logger     *slog.Logger

	startedAt time.Time
	ready     atomic.Bool
}

// NewServer builds a Server bound to addr, using reg and trig for state
// and authToken (empty disables auth) for the bearer-token middleware.
func NewServer(addr string, reg *registry.Registry, trig *scheduler.Trigger, instances []entity.CrawlerInstance, authToken string) *Server {
	s := &Server{
		registry:  reg,
		trigger:   trig,
		instances: instances,
		authToken: authToken,
		logger:    logging.NewLogger().With("component", "coordinator"),
		startedAt: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", s.handleHealthLive)
	mux.HandleFunc("GET /health/ready", s.handleHealthReady)
	mux.HandleFunc("GET /health/startup", s.handleHealthStartup)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/schedule/today", s.handleScheduleToday)
	api.HandleFunc("GET /api/schedule/{date}", s.handleScheduleByDate)
	api.HandleFunc("GET /api/instances", s.handleListInstances)
	api.HandleFunc("POST /api/instances/register", s.handleRegister)
	api.HandleFunc("POST /api/instances/heartbeat", s.handleHeartbeat)
	api.HandleFunc("POST /api/instances/{id}/deregister", s.handleDeregister)

	mux.Handle("/api/", requireBearerToken(s.authToken, api))
	return requestid.Middleware(mux)
}

// MarkReady flips the readiness and startup probes to healthy. Call once
// bootstrap(config) has finished (registry/scheduler/trigger wired).
func (s *Server) MarkReady() {
	s.ready.Store(true)
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then drains
// in-flight requests up to ShutdownGrace before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
