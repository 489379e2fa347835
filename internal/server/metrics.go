package server

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"latencygen/internal/agent"
	"latencygen/internal/gateway"
	"latencygen/internal/model"
)

// Metrics records the generator's own activity on a private registry and
// keeps the last push for /healthz. It implements agent.Observer.
type Metrics struct {
	registry *prometheus.Registry

	pushes      *prometheus.CounterVec
	duration    prometheus.Histogram
	samples     prometheus.Counter
	cycles      prometheus.Counter
	lastSuccess prometheus.Gauge

	mu     sync.Mutex
	status Status
	now    func() time.Time
}

// Status is the JSON body of /healthz.
type Status struct {
	State       string     `json:"state"`
	Cycles      int64      `json:"cycles"`
	LastSamples int        `json:"last_samples"`
	LastResult  string     `json:"last_result,omitempty"`
	LastStatus  int        `json:"last_status,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

var _ agent.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "latencygen",
			Name:      "pushes_total",
			Help:      "Pushes to the gateway by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "latencygen",
			Name:      "push_duration_seconds",
			Help:      "Duration of gateway pushes.",
			Buckets:   prometheus.DefBuckets,
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "latencygen",
			Name:      "samples_generated_total",
			Help:      "Latency samples fabricated.",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "latencygen",
			Name:      "cycles_total",
			Help:      "Completed generate and push cycles.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "latencygen",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last accepted push.",
		}),
		status: Status{State: agent.StateRunning.String()},
		now:    time.Now,
	}
	m.registry.MustRegister(m.pushes, m.duration, m.samples, m.cycles, m.lastSuccess)
	// Pre-create every result series so absent failures read as 0.
	m.pushes.WithLabelValues(gateway.KindNone.String())
	for _, k := range gateway.Kinds {
		m.pushes.WithLabelValues(k.String())
	}
	return m
}

// Registry exposes the private registry for scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveCycle(samples []model.Sample) {
	m.samples.Add(float64(len(samples)))
	m.mu.Lock()
	m.status.LastSamples = len(samples)
	m.mu.Unlock()
}

func (m *Metrics) ObservePush(out gateway.Outcome) {
	kind := out.Kind()
	m.pushes.WithLabelValues(kind.String()).Inc()
	m.duration.Observe(out.Duration.Seconds())
	m.cycles.Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Cycles++
	m.status.LastResult = kind.String()
	m.status.LastStatus = out.StatusCode
	m.status.LastError = ""
	if out.Err != nil {
		m.status.LastError = out.Err.Error()
		return
	}
	now := m.now().UTC()
	m.status.LastSuccess = &now
	m.lastSuccess.Set(float64(now.UnixNano()) / 1e9)
}

func (m *Metrics) ObserveState(s agent.State) {
	m.mu.Lock()
	m.status.State = s.String()
	m.mu.Unlock()
}

// Status returns a copy of the current status.
func (m *Metrics) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.status
	if st.LastSuccess != nil {
		t := *st.LastSuccess
		st.LastSuccess = &t
	}
	return st
}
