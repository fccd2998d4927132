package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Session persistence
	SessionSaves    *prometheus.CounterVec
	SessionLoads    *prometheus.CounterVec
	BackupFailures  prometheus.Counter
	RestorationLock prometheus.Gauge

	// Profiles
	ProfileOps      *prometheus.CounterVec
	ProfileSwitches *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the JSON status endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for JSON consumers
type Snapshot struct {
	TotalRequests  int64            `json:"total_requests"`
	TotalErrors    int64            `json:"total_errors"`
	Saves          map[string]int64 `json:"saves"`
	Loads          map[string]int64 `json:"loads"`
	BackupFailures int64            `json:"backup_failures"`
	Restoring      bool             `json:"restoring"`
	Switches       int64            `json:"switches"`
	UptimeSeconds  float64          `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),
		snapshot: Snapshot{
			Saves: make(map[string]int64),
			Loads: make(map[string]int64),
		},

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuedeck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cuedeck_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cuedeck_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		SessionSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuedeck_session_saves_total",
				Help: "Session state saves by result (saved, refused, error)",
			},
			[]string{"result"},
		),
		SessionLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuedeck_session_loads_total",
				Help: "Session state loads by result",
			},
			[]string{"result"},
		),
		BackupFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cuedeck_session_backup_failures_total",
				Help: "Failed copies of the previous state file",
			},
		),
		RestorationLock: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cuedeck_session_restoring",
				Help: "1 while a restoration holds the save lock",
			},
		),

		ProfileOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuedeck_profile_operations_total",
				Help: "Profile lifecycle operations by operation and result",
			},
			[]string{"op", "result"},
		),
		ProfileSwitches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuedeck_profile_switches_total",
				Help: "Profile switches by result",
			},
			[]string{"result"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "cuedeck_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordSave records a save outcome
func (m *Metrics) RecordSave(result string) {
	m.SessionSaves.WithLabelValues(result).Inc()
	m.mu.Lock()
	m.snapshot.Saves[result]++
	m.mu.Unlock()
}

// RecordLoad records a load outcome
func (m *Metrics) RecordLoad(result string) {
	m.SessionLoads.WithLabelValues(result).Inc()
	m.mu.Lock()
	m.snapshot.Loads[result]++
	m.mu.Unlock()
}

// RecordBackupFailure records a failed state backup
func (m *Metrics) RecordBackupFailure() {
	m.BackupFailures.Inc()
	m.mu.Lock()
	m.snapshot.BackupFailures++
	m.mu.Unlock()
}

// SetRestoring tracks the restoration lock
func (m *Metrics) SetRestoring(restoring bool) {
	v := 0.0
	if restoring {
		v = 1
	}
	m.RestorationLock.Set(v)
	m.mu.Lock()
	m.snapshot.Restoring = restoring
	m.mu.Unlock()
}

// RecordProfileOp records a lifecycle operation
func (m *Metrics) RecordProfileOp(op, result string) {
	m.ProfileOps.WithLabelValues(op, result).Inc()
}

// RecordSwitch records a profile switch
func (m *Metrics) RecordSwitch(result string) {
	m.ProfileSwitches.WithLabelValues(result).Inc()
	m.mu.Lock()
	m.snapshot.Switches++
	m.mu.Unlock()
}

// Snapshot returns a copy of the current values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.snapshot
	out.Saves = copyCounts(m.snapshot.Saves)
	out.Loads = copyCounts(m.snapshot.Loads)
	out.UptimeSeconds = time.Since(m.startTime).Seconds()
	return out
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
