// Package metrics exposes prometheus collectors for the engine's host
// service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cadastre"

type Metrics struct {
	SnapshotsReceived *prometheus.CounterVec
	SnapshotsSkipped  prometheus.Counter
	TrackedAccounts   prometheus.Gauge
	StreamingAccounts prometheus.Gauge

	AuctionsRejected *prometheus.CounterVec

	ImpactEstimates *prometheus.CounterVec
	PoolBlock       *prometheus.GaugeVec

	WSConnections prometheus.Gauge
	StateSaves    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		SnapshotsReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "snapshots_received_total",
			Help:      "Snapshots received by kind",
		}, []string{"kind"}),
		SnapshotsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "snapshots_skipped_total",
			Help:      "Balance snapshots dropped as stale or already restored",
		}),
		TrackedAccounts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "accounts",
			Help:      "Accounts with a current snapshot",
		}),
		StreamingAccounts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "streaming_accounts",
			Help:      "Accounts with a non-zero flow rate",
		}),
		AuctionsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auction",
			Name:      "params_rejected_total",
			Help:      "Auction parameter reads rejected by validation",
		}, []string{"variant"}),
		ImpactEstimates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "impact_estimates_total",
			Help:      "Matching impact estimates by outcome",
		}, []string{"status"}),
		PoolBlock: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "pool_block",
			Help:      "Block of the current pool snapshot",
		}, []string{"pool"}),
		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "web",
			Name:      "ws_connections",
			Help:      "Open websocket connections",
		}),
		StateSaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "state_saves_total",
			Help:      "Tracker state saves by status",
		}, []string{"status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop returns metrics registered on a throwaway registry, for tests.
func Nop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
