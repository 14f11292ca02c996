// Package metrics exposes engine counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"curvedex/internal/dex"
)

const namespace = "curvedex"

type Metrics struct {
	registry *prometheus.Registry

	operations    *prometheus.CounterVec
	failures      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	swaps         *prometheus.CounterVec
	readyToLaunch prometheus.Counter
	launches      prometheus.Counter
	subscribers   prometheus.GaugeFunc
	vaults        *prometheus.GaugeVec
	remaining     *prometheus.GaugeVec
}

// New registers every collector on a fresh registry. subscribers reports the
// live websocket count and may be nil.
func New(subscribers func() int) (*Metrics, error) {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "number of committed operations",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "number of rejected operations by error kind",
		}, []string{"operation", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "time spent running an operation, transaction included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swaps_total",
			Help:      "number of committed swaps",
		}, []string{"direction", "mode"}),
		readyToLaunch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ready_to_launch_total",
			Help:      "number of pools that crossed their reserve bound",
		}),
		launches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launches_total",
			Help:      "number of pools launched into the amm",
		}),
		vaults: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_vault_balance",
			Help:      "vault balance of a trading pool, in base units",
		}, []string{"pool", "side"}),
		remaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_remaining_to_bound",
			Help:      "tokens the bound-side vault still has to move before launch",
		}, []string{"pool"}),
	}
	if subscribers == nil {
		subscribers = func() int { return 0 }
	}
	m.subscribers = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_subscribers",
		Help:      "number of open event websockets",
	}, func() float64 { return float64(subscribers()) })

	for _, c := range []prometheus.Collector{
		m.operations,
		m.failures,
		m.duration,
		m.swaps,
		m.readyToLaunch,
		m.launches,
		m.subscribers,
		m.vaults,
		m.remaining,
		collectors.NewGoCollector(),
	} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one operation outcome.
func (m *Metrics) Observe(operation string, start time.Time, err error) {
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.failures.WithLabelValues(operation, dex.Kind(err).String()).Inc()
		return
	}
	m.operations.WithLabelValues(operation).Inc()
}

// Event counts domain events.
func (m *Metrics) Event(ev dex.Event) {
	switch e := ev.(type) {
	case *dex.SwapEvent:
		mode := dex.BaseOutput
		if e.BaseInput {
			mode = dex.BaseInput
		}
		m.swaps.WithLabelValues(e.Direction.String(), mode.String()).Inc()
	case *dex.ReadyToLaunchEvent:
		m.readyToLaunch.Inc()
	case *dex.LaunchedEvent:
		m.launches.Inc()
	}
}

// SetPool records the balances of a pool that is still trading.
func (m *Metrics) SetPool(id string, balances [2]uint64, remaining uint64) {
	m.vaults.WithLabelValues(id, "0").Set(float64(balances[0]))
	m.vaults.WithLabelValues(id, "1").Set(float64(balances[1]))
	m.remaining.WithLabelValues(id).Set(float64(remaining))
}

// DropPool removes the series of a pool that left trading.
func (m *Metrics) DropPool(id string) {
	m.vaults.DeleteLabelValues(id, "0")
	m.vaults.DeleteLabelValues(id, "1")
	m.remaining.DeleteLabelValues(id)
}
