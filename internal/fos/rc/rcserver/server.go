// Package rcserver implements the HTTP surface (C5): a chi-routed
// server mounting the JSON-RPC endpoint, a health check, and a
// Prometheus metrics endpoint, grounded on the teacher's
// fs/rc/rcserver package (same routing library, same three-endpoint
// shape minus the static-file/remote-browsing routes this service has
// no use for).
package rcserver

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/fserrors"
	fslog "github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/log"
	"github.com/Marat-Nuriakhmetov/FileSystemService/internal/fos/rc"
)

// Config controls the paths and limits of the mounted endpoints, per
// spec.md §4.5/§6 and SPEC_FULL.md's Config data-model addition.
type Config struct {
	RPCPath      string
	HealthPath   string
	MetricsPath  string
	MaxBodyBytes int64
}

// DefaultConfig returns the spec's default paths and body cap.
func DefaultConfig() Config {
	return Config{
		RPCPath:      "/fos",
		HealthPath:   "/health",
		MetricsPath:  "/metrics",
		MaxBodyBytes: 32 << 20,
	}
}

// Server owns the registry, optional coordinator pinger, logger, and
// Prometheus registry behind the three mounted endpoints.
type Server struct {
	cfg      Config
	registry *rc.Registry
	pinger   Pinger
	logger   *fslog.Logger
	metrics  *metrics
	promReg  *prometheus.Registry
}

// New builds a Server. pinger may be nil, in which case /health always
// reports UP (no coordinator was configured to check).
func New(cfg Config, registry *rc.Registry, pinger Pinger, logger *fslog.Logger) *Server {
	if logger == nil {
		logger = fslog.Default()
	}
	promReg := prometheus.NewRegistry()
	m := newMetrics(promReg)
	registry.SetHooks(rc.Hooks{
		OnCall: func(method, errKind string) {
			m.requestsTotal.WithLabelValues(method).Inc()
			atomic.AddInt64(&m.requests, 1)
			if errKind != "" {
				m.errorsTotal.WithLabelValues(errKind).Inc()
				atomic.AddInt64(&m.errors, 1)
			}
			if method == "append" {
				if errKind == fserrors.LockUnavailable.String() {
					m.leaseFailed.Inc()
					atomic.AddInt64(&m.leasesFailed, 1)
				} else if errKind == "" {
					m.leaseAcquired.Inc()
					m.leaseReleased.Inc()
					atomic.AddInt64(&m.leasesOK, 1)
					atomic.AddInt64(&m.leasesDone, 1)
				}
			}
		},
		OnBatch: func() {
			m.batchRequestsTotal.Inc()
			atomic.AddInt64(&m.batches, 1)
		},
		OnNotification: func() {
			m.notificationsTotal.Inc()
			atomic.AddInt64(&m.notifications, 1)
		},
	})
	registry.Add(rc.Call{
		Path: "status",
		Fn: func(ctx context.Context, in rc.Params) (interface{}, *rc.RPCError) {
			return m.Snapshot(), nil
		},
	})
	return &Server{cfg: cfg, registry: registry, pinger: pinger, logger: logger, metrics: m, promReg: promReg}
}

// Router builds the chi.Mux serving the three endpoints. Unknown paths
// fall through to chi's default 404; requesting a mounted path with the
// wrong method gets chi's default 405, per spec.md §4.5.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post(s.cfg.RPCPath, s.handleRPC)
	r.Get(s.cfg.HealthPath, s.handleHealth)
	r.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	body, err := readAll(r)
	if err != nil {
		s.logger.Warn("rejecting oversized or unreadable request body", "error", err)
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	resp := rc.Handle(r.Context(), s.registry, body)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if resp == nil {
		// All-notification request: spec.md §4.4 requires an empty body.
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func readAll(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(r.Body)
}
