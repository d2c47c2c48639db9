package rcserver

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus collectors exposed on /metrics, grounded
// on fs/rc/rcserver/metrics_test.go's expectation of a handful of plain
// counters (the teacher counts bytes/files transferred; this service
// counts RPC calls, by method and by error kind, plus lease outcomes).
//
// The same counts are mirrored into plain atomics so the "status" RPC
// method (SPEC_FULL.md §3's in-band metrics snapshot) can report them
// without the rc package importing Prometheus.
type metrics struct {
	requestsTotal      *prometheus.CounterVec
	batchRequestsTotal prometheus.Counter
	notificationsTotal prometheus.Counter
	errorsTotal        *prometheus.CounterVec
	leaseAcquired      prometheus.Counter
	leaseFailed        prometheus.Counter
	leaseReleased      prometheus.Counter

	requests      int64
	batches       int64
	notifications int64
	errors        int64
	leasesOK      int64
	leasesFailed  int64
	leasesDone    int64
}

// snapshot is the "status" RPC result shape.
type snapshot struct {
	Requests      int64 `json:"requests"`
	BatchRequests int64 `json:"batchRequests"`
	Notifications int64 `json:"notifications"`
	Errors        int64 `json:"errors"`
	LeasesOK      int64 `json:"leasesAcquired"`
	LeasesFailed  int64 `json:"leasesFailed"`
	LeasesDone    int64 `json:"leasesReleased"`
}

func (m *metrics) Snapshot() snapshot {
	return snapshot{
		Requests:      atomic.LoadInt64(&m.requests),
		BatchRequests: atomic.LoadInt64(&m.batches),
		Notifications: atomic.LoadInt64(&m.notifications),
		Errors:        atomic.LoadInt64(&m.errors),
		LeasesOK:      atomic.LoadInt64(&m.leasesOK),
		LeasesFailed:  atomic.LoadInt64(&m.leasesFailed),
		LeasesDone:    atomic.LoadInt64(&m.leasesDone),
	}
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fos_rpc_requests_total",
			Help: "Total JSON-RPC requests processed, by method.",
		}, []string{"method"}),
		batchRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fos_rpc_batch_requests_total",
			Help: "Total JSON-RPC batch envelopes received.",
		}),
		notificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fos_rpc_notifications_total",
			Help: "Total JSON-RPC notifications (no response produced).",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fos_rpc_errors_total",
			Help: "Total JSON-RPC error responses, by core error kind.",
		}, []string{"kind"}),
		leaseAcquired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fos_lease_acquired_total",
			Help: "Total append calls that acquired a lease and completed successfully.",
		}),
		leaseFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fos_lease_failed_total",
			Help: "Total append calls that failed with LockUnavailable.",
		}),
		leaseReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fos_lease_released_total",
			Help: "Total leases released by append calls that completed successfully.",
		}),
	}
	reg.MustRegister(
		m.requestsTotal,
		m.batchRequestsTotal,
		m.notificationsTotal,
		m.errorsTotal,
		m.leaseAcquired,
		m.leaseFailed,
		m.leaseReleased,
	)
	return m
}
