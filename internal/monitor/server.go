package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
	"github.com/hawk7227/dropshipping-management-sub008/internal/infra/storage"
	"github.com/hawk7227/dropshipping-management-sub008/internal/resilience/breaker"
)

// Server exposes the read-only observability surface over HTTP.
type Server struct {
	service  *Service
	registry *breaker.Registry
	server   *http.Server
}

// NewServer creates the observability HTTP server.
func NewServer(service *Service, registry *breaker.Registry, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		service:  service,
		registry: registry,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/healthz/detailed", s.handleDetailed)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/alerts/acknowledge", s.handleAcknowledge)
	mux.HandleFunc("/alerts/resolve", s.handleResolve)
	mux.HandleFunc("/metrics/system", s.handleSystemMetrics)
	mux.HandleFunc("/breakers", s.handleBreakers)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks, err := s.service.HealthChecks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Worst case wins.
	status := domain.StatusHealthy
	for _, c := range checks {
		if c.Status == domain.StatusUnhealthy {
			status = domain.StatusUnhealthy
			break
		}
		if c.Status == domain.StatusDegraded {
			status = domain.StatusDegraded
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status == domain.StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]string{"status": string(status)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	checks, err := s.service.HealthChecks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, checks)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	severity := domain.Severity(r.URL.Query().Get("severity"))
	pipeline := r.URL.Query().Get("pipeline")

	alerts, err := s.service.Alerts(r.Context(), severity, pipeline)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, alerts)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	s.stampAlert(w, r, s.service.AcknowledgeAlert)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	s.stampAlert(w, r, s.service.ResolveAlert)
}

func (s *Server) stampAlert(w http.ResponseWriter, r *http.Request, stamp func(context.Context, string) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	if err := stamp(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrAlertNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"id": id, "status": "ok"})
}

func (s *Server) handleSystemMetrics(w http.ResponseWriter, r *http.Request) {
	window := 60
	if v := r.URL.Query().Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid window", http.StatusBadRequest)
			return
		}
		window = n
	}

	samples, err := s.service.SystemMetrics(r.Context(), window)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, samples)
}

func (s *Server) handleBreakers(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeJSON(w, []breaker.Snapshot{})
		return
	}
	writeJSON(w, s.registry.Snapshots())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.GetDashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, d)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
