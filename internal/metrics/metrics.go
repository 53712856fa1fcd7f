// Package metrics exposes Prometheus counters for the team-ops service on a
// private registry.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "teamops"

// Metrics holds all application metrics
type Metrics struct {
	registry *prometheus.Registry

	// Event metrics
	callsLogged       *prometheus.CounterVec
	callsRemoved      *prometheus.CounterVec
	attendanceEvents  *prometheus.CounterVec
	weekClearedEvents prometheus.Counter

	// Persistence
	storeWrites   *prometheus.CounterVec
	storeFailures *prometheus.CounterVec

	// Admin gate
	adminUnlocks *prometheus.CounterVec

	// WebSocket metrics
	wsConnections   prometheus.Counter
	wsActive        prometheus.Gauge
	wsMessages      prometheus.Counter
	wsErrors        prometheus.Counter
	ticksTotal      prometheus.Counter
	tickDuration    prometheus.Histogram
	agentsOnline    prometheus.Gauge
	exportsTotal    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDurations   *prometheus.HistogramVec
	activeConnCount int64
	mu              sync.Mutex
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates a metrics set on its own registry. Tests use this to avoid
// sharing counters with the singleton.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		callsLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_logged_total",
			Help:      "Calls logged by agent and outcome",
		}, []string{"agent", "outcome"}),
		callsRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_removed_total",
			Help:      "Calls removed through undo, by agent",
		}, []string{"agent"}),
		attendanceEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_events_total",
			Help:      "Clock-in and clock-out events by type",
		}, []string{"type"}),
		weekClearedEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "week_cleared_events_total",
			Help:      "Events removed by week clears",
		}),
		storeWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Record writes by key",
		}, []string{"key"}),
		storeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_failures_total",
			Help:      "Failed record writes by key",
		}, []string{"key"}),
		adminUnlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admin",
			Name:      "unlock_attempts_total",
			Help:      "Admin unlock attempts by result",
		}, []string{"result"}),
		wsConnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_total",
			Help:      "Dashboard websocket connections accepted",
		}),
		wsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Currently connected dashboard clients",
		}),
		wsMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Messages written to dashboard clients",
		}),
		wsErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "errors_total",
			Help:      "Websocket read or write errors",
		}),
		ticksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ticker",
			Name:      "ticks_total",
			Help:      "Dashboard recompute cycles",
		}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ticker",
			Name:      "duration_seconds",
			Help:      "Time taken to recompute and broadcast the dashboard",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		agentsOnline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agents_online",
			Help:      "Agents whose last event today is a clock-in",
		}),
		exportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports generated by format",
		}, []string{"format"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
		httpDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordCallLogged(agent, outcome string) {
	m.callsLogged.WithLabelValues(agent, outcome).Inc()
}

func (m *Metrics) RecordCallRemoved(agent string) {
	m.callsRemoved.WithLabelValues(agent).Inc()
}

func (m *Metrics) RecordAttendance(typ string) {
	m.attendanceEvents.WithLabelValues(typ).Inc()
}

func (m *Metrics) RecordWeekCleared(events int) {
	m.weekClearedEvents.Add(float64(events))
}

// RecordStoreWrite counts a write and, when err is non-nil, a failure
func (m *Metrics) RecordStoreWrite(key string, err error) {
	m.storeWrites.WithLabelValues(key).Inc()
	if err != nil {
		m.storeFailures.WithLabelValues(key).Inc()
	}
}

// RecordAdminUnlock records an unlock attempt; result is "ok" or a short
// failure reason
func (m *Metrics) RecordAdminUnlock(result string) {
	m.adminUnlocks.WithLabelValues(result).Inc()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.wsConnections.Inc()
	m.wsActive.Inc()
	m.mu.Lock()
	m.activeConnCount++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect decrements the active gauge
func (m *Metrics) RecordWebSocketDisconnect() {
	m.wsActive.Dec()
	m.mu.Lock()
	m.activeConnCount--
	m.mu.Unlock()
}

func (m *Metrics) RecordWebSocketMessage() {
	m.wsMessages.Inc()
}

func (m *Metrics) RecordWebSocketError() {
	m.wsErrors.Inc()
}

// RecordTick records one dashboard recompute cycle
func (m *Metrics) RecordTick(duration time.Duration, online int) {
	m.ticksTotal.Inc()
	m.tickDuration.Observe(duration.Seconds())
	m.agentsOnline.Set(float64(online))
}

func (m *Metrics) RecordExport(format string) {
	m.exportsTotal.WithLabelValues(format).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(route string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	m.httpDurations.WithLabelValues(route).Observe(duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeConnCount
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
