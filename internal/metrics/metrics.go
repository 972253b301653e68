// Package metrics exposes Prometheus counters for the scan loops plus the
// HTTP surface the hosting platform probes: /healthz answers 200 regardless
// of loop state, /metrics serves the registry.
package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics holds the counters the scanner increments.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec // labels: loop
	SymbolsScanned     *prometheus.CounterVec // labels: loop
	FetchErrors        *prometheus.CounterVec // labels: loop, stage
	SignalsTotal       *prometheus.CounterVec // labels: detector
	AlertsSent         *prometheus.CounterVec // labels: loop
	CooldownSuppressed *prometheus.CounterVec // labels: loop
	CycleDuration      *prometheus.HistogramVec
}

// New registers all metrics against reg. Pass a fresh registry in tests to
// avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_cycles_total",
			Help: "Completed scan cycles",
		}, []string{"loop"}),
		SymbolsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_symbols_scanned_total",
			Help: "Symbols evaluated across all cycles",
		}, []string{"loop"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_fetch_errors_total",
			Help: "Market-data fetch failures by stage",
		}, []string{"loop", "stage"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_signals_total",
			Help: "Raw detector signals before cooldown gating",
		}, []string{"detector"}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_alerts_sent_total",
			Help: "Alerts accepted by the gate and handed to delivery",
		}, []string{"loop"}),
		CooldownSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_cooldown_suppressed_total",
			Help: "Signals dropped by the cooldown gate",
		}, []string{"loop"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_cycle_duration_seconds",
			Help:    "Wall time of one full scan cycle",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"loop"}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.SymbolsScanned,
		m.FetchErrors,
		m.SignalsTotal,
		m.AlertsSent,
		m.CooldownSuppressed,
		m.CycleDuration,
	)
	return m
}

// Server exposes /, /healthz and /metrics.
type Server struct {
	srv       *http.Server
	startedAt time.Time
}

func NewServer(addr string) *Server {
	s := &Server{startedAt: time.Now()}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}{
		Status: "ok",
		Uptime: time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("health/metrics server listening")
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health/metrics server error")
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
