package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Registry metrics
	WindowsLive        prometheus.Gauge
	WindowsHibernating prometheus.Gauge
	AppsTracked        prometheus.Gauge
	Reconciliations    prometheus.Counter
	ReconcileDuration  prometheus.Histogram
	Transitions        *prometheus.CounterVec
	Notifications      *prometheus.CounterVec

	// Hibernation metrics
	Signals     *prometheus.CounterVec
	Escalations prometheus.Counter
	Resumes     *prometheus.CounterVec

	// Memory pressure metrics
	Kills       *prometheus.CounterVec
	KillVictims *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for JSON API
type Snapshot struct {
	LiveWindows        int     `json:"live_windows"`
	HibernatingWindows int     `json:"hibernating_windows"`
	Apps               int     `json:"apps"`
	Reconciliations    int64   `json:"reconciliations"`
	Notifications      int64   `json:"notifications"`
	SignalsSent        int64   `json:"signals_sent"`
	SignalFailures     int64   `json:"signal_failures"`
	Escalations        int64   `json:"escalations"`
	WSConnections      int64   `json:"ws_connections"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on the default registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector registered on reg
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	// HTTP metrics
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switcherd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "switcherd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Registry metrics
	m.WindowsLive = factory.NewGauge(prometheus.GaugeOpts{
		Name: "switcherd_windows_live",
		Help: "Number of live tracked windows",
	})
	m.WindowsHibernating = factory.NewGauge(prometheus.GaugeOpts{
		Name: "switcherd_windows_hibernating",
		Help: "Number of hibernating windows",
	})
	m.AppsTracked = factory.NewGauge(prometheus.GaugeOpts{
		Name: "switcherd_apps_tracked",
		Help: "Number of tracked applications",
	})
	m.Reconciliations = factory.NewCounter(prometheus.CounterOpts{
		Name: "switcherd_reconciliations_total",
		Help: "Total number of client-list reconciliations",
	})
	m.ReconcileDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "switcherd_reconcile_duration_seconds",
		Help:    "Client-list reconciliation duration in seconds",
		Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
	})
	m.Transitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switcherd_window_transitions_total",
			Help: "Window lifecycle transitions",
		},
		[]string{"transition"},
	)
	m.Notifications = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switcherd_notifications_total",
			Help: "Outward change notifications",
		},
		[]string{"kind"},
	)

	// Hibernation metrics
	m.Signals = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switcherd_signals_total",
			Help: "Process signals sent",
		},
		[]string{"signal", "result"},
	)
	m.Escalations = factory.NewCounter(prometheus.CounterOpts{
		Name: "switcherd_kill_escalations_total",
		Help: "Processes still alive at the kill-confirmation deadline",
	})
	m.Resumes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switcherd_resumes_total",
			Help: "Resume requests for hibernating applications",
		},
		[]string{"result"},
	)

	// Memory pressure metrics
	m.Kills = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switcherd_kill_requests_total",
			Help: "Kill requests by mode",
		},
		[]string{"mode"},
	)
	m.KillVictims = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switcherd_kill_victims_total",
			Help: "Windows terminated by kill requests",
		},
		[]string{"mode"},
	)

	// WebSocket metrics
	m.WSConnections = factory.NewGauge(prometheus.GaugeOpts{
		Name: "switcherd_ws_connections",
		Help: "Number of active WebSocket connections",
	})
	m.WSMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switcherd_ws_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction", "type"},
	)

	// System metrics
	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "switcherd_uptime_seconds",
			Help: "Daemon uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordReconcile records one reconciliation pass
func (m *Metrics) RecordReconcile(duration time.Duration) {
	m.Reconciliations.Inc()
	m.ReconcileDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Reconciliations++
	m.mu.Unlock()
}

// SetWindows sets the registry gauges
func (m *Metrics) SetWindows(live, hibernating, apps int) {
	m.WindowsLive.Set(float64(live))
	m.WindowsHibernating.Set(float64(hibernating))
	m.AppsTracked.Set(float64(apps))

	m.mu.Lock()
	m.snapshot.LiveWindows = live
	m.snapshot.HibernatingWindows = hibernating
	m.snapshot.Apps = apps
	m.mu.Unlock()
}

// RecordTransition records a window lifecycle transition
func (m *Metrics) RecordTransition(transition string) {
	m.Transitions.WithLabelValues(transition).Inc()
}

// RecordNotification records an outward notification
func (m *Metrics) RecordNotification(kind string) {
	m.Notifications.WithLabelValues(kind).Inc()
	m.mu.Lock()
	m.snapshot.Notifications++
	m.mu.Unlock()
}

// RecordSignal records a process signal
func (m *Metrics) RecordSignal(signal string, ok bool) {
	result := "success"
	if !ok {
		result = "error"
	}
	m.Signals.WithLabelValues(signal, result).Inc()

	m.mu.Lock()
	if ok {
		m.snapshot.SignalsSent++
	} else {
		m.snapshot.SignalFailures++
	}
	m.mu.Unlock()
}

// RecordEscalation records a SIGTERM to SIGKILL escalation
func (m *Metrics) RecordEscalation() {
	m.Escalations.Inc()
	m.mu.Lock()
	m.snapshot.Escalations++
	m.mu.Unlock()
}

// RecordResume records the outcome of a resume request
func (m *Metrics) RecordResume(result string) {
	m.Resumes.WithLabelValues(result).Inc()
}

// RecordKill records a kill request
func (m *Metrics) RecordKill(mode string, victims int) {
	m.Kills.WithLabelValues(mode).Inc()
	m.KillVictims.WithLabelValues(mode).Add(float64(victims))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.WSConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.WSConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
