package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/disputewatch/disputewatch/internal/health"
)

const shutdownTimeout = 5 * time.Second

// Server is the optional status probe: GET /health returns the current
// health snapshot as JSON, /metrics the Prometheus registry, and every other
// path a 404. Each connection is handled in its own goroutine by net/http,
// so a slow client cannot stall the watchdog's tasks.
type Server struct {
	monitor *health.Monitor
	srv     *http.Server
}

// New creates a probe Server reading from monitor and listening on port.
func New(monitor *health.Monitor, port int) *Server {
	s := &Server{monitor: monitor}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.health)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Handler returns the probe's HTTP handler; exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is cancelled, then shuts the listener down. A listen
// failure is returned; the caller treats it as non-fatal to the process.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("probe: listening", "addr", s.srv.Addr)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("probe: serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.srv.Shutdown(shutdownCtx) //nolint:errcheck
		return nil
	}
}

// health returns GET /health with the current snapshot. The ServeMux falls
// through to its built-in 404 for every other path.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.monitor.Snapshot()); err != nil {
		slog.Error("probe: encode snapshot", "err", err)
	}
}
