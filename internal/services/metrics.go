package services

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/damione1/recording-view/internal/config"
)

// Metrics tracks layout pipeline throughput and WebSocket resource usage
type Metrics struct {
	// Connection metrics
	activeViewers int64
	totalViewers  int64
	activeBridges int64
	liveSessions  int64

	// Pipeline metrics
	eventsReceived  int64
	rosterBatches   int64
	layoutsComputed int64
	templateChanges int64
	messagesSent    int64
	lastEventTime   int64 // Unix timestamp

	// Error metrics
	malformedEvents     int64
	broadcastErrors     int64
	rateLimitViolations int64
	storeErrors         int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// Connection tracking
func (m *Metrics) IncrementViewers() {
	atomic.AddInt64(&m.activeViewers, 1)
	atomic.AddInt64(&m.totalViewers, 1)
}

func (m *Metrics) DecrementViewers() {
	atomic.AddInt64(&m.activeViewers, -1)
}

func (m *Metrics) IncrementBridges() {
	atomic.AddInt64(&m.activeBridges, 1)
}

func (m *Metrics) DecrementBridges() {
	atomic.AddInt64(&m.activeBridges, -1)
}

func (m *Metrics) IncrementSessions() {
	atomic.AddInt64(&m.liveSessions, 1)
}

func (m *Metrics) DecrementSessions() {
	atomic.AddInt64(&m.liveSessions, -1)
}

// Pipeline tracking
func (m *Metrics) IncrementEventsReceived() {
	atomic.AddInt64(&m.eventsReceived, 1)
	atomic.StoreInt64(&m.lastEventTime, time.Now().Unix())
}

func (m *Metrics) IncrementRosterBatches() {
	atomic.AddInt64(&m.rosterBatches, 1)
}

func (m *Metrics) IncrementLayoutsComputed() {
	atomic.AddInt64(&m.layoutsComputed, 1)
}

func (m *Metrics) IncrementTemplateChanges() {
	atomic.AddInt64(&m.templateChanges, 1)
}

func (m *Metrics) IncrementMessagesSent() {
	atomic.AddInt64(&m.messagesSent, 1)
}

// Error tracking
func (m *Metrics) IncrementMalformedEvents() {
	atomic.AddInt64(&m.malformedEvents, 1)
}

func (m *Metrics) IncrementBroadcastErrors() {
	atomic.AddInt64(&m.broadcastErrors, 1)
}

func (m *Metrics) IncrementRateLimitViolations() {
	atomic.AddInt64(&m.rateLimitViolations, 1)
}

func (m *Metrics) IncrementStoreErrors() {
	atomic.AddInt64(&m.storeErrors, 1)
}

// MetricsSnapshot represents a point-in-time view of metrics
type MetricsSnapshot struct {
	// Connection metrics
	ActiveViewers int64 `json:"active_viewers"`
	TotalViewers  int64 `json:"total_viewers"`
	ActiveBridges int64 `json:"active_bridges"`
	LiveSessions  int64 `json:"live_sessions"`

	// Pipeline metrics
	EventsReceived  int64   `json:"events_received"`
	EventsPerSecond float64 `json:"events_per_second"`
	RosterBatches   int64   `json:"roster_batches"`
	LayoutsComputed int64   `json:"layouts_computed"`
	TemplateChanges int64   `json:"template_changes"`
	MessagesSent    int64   `json:"messages_sent"`
	LastEventTime   string  `json:"last_event_time"`

	// Error metrics
	MalformedEvents     int64 `json:"malformed_events"`
	BroadcastErrors     int64 `json:"broadcast_errors"`
	RateLimitViolations int64 `json:"rate_limit_violations"`
	StoreErrors         int64 `json:"store_errors"`

	// Resource metrics
	UptimeSeconds int64  `json:"uptime_seconds"`
	MemoryUsageMB uint64 `json:"memory_usage_mb"`
	NumGoroutines int    `json:"num_goroutines"`

	HealthStatus string `json:"health_status"`
}

// Snapshot returns a point-in-time view of all metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(m.startTime)
	eventsPerSec := float64(atomic.LoadInt64(&m.eventsReceived)) / uptime.Seconds()

	lastEvent := atomic.LoadInt64(&m.lastEventTime)
	lastEventStr := "never"
	if lastEvent > 0 {
		lastEventStr = time.Unix(lastEvent, 0).Format(time.RFC3339)
	}

	return MetricsSnapshot{
		ActiveViewers:       atomic.LoadInt64(&m.activeViewers),
		TotalViewers:        atomic.LoadInt64(&m.totalViewers),
		ActiveBridges:       atomic.LoadInt64(&m.activeBridges),
		LiveSessions:        atomic.LoadInt64(&m.liveSessions),
		EventsReceived:      atomic.LoadInt64(&m.eventsReceived),
		EventsPerSecond:     eventsPerSec,
		RosterBatches:       atomic.LoadInt64(&m.rosterBatches),
		LayoutsComputed:     atomic.LoadInt64(&m.layoutsComputed),
		TemplateChanges:     atomic.LoadInt64(&m.templateChanges),
		MessagesSent:        atomic.LoadInt64(&m.messagesSent),
		LastEventTime:       lastEventStr,
		MalformedEvents:     atomic.LoadInt64(&m.malformedEvents),
		BroadcastErrors:     atomic.LoadInt64(&m.broadcastErrors),
		RateLimitViolations: atomic.LoadInt64(&m.rateLimitViolations),
		StoreErrors:         atomic.LoadInt64(&m.storeErrors),
		UptimeSeconds:       int64(uptime.Seconds()),
		MemoryUsageMB:       memStats.Alloc / 1024 / 1024,
		NumGoroutines:       runtime.NumGoroutine(),
		HealthStatus:        m.calculateHealthStatus(),
	}
}

// calculateHealthStatus determines overall system health
func (m *Metrics) calculateHealthStatus() string {
	sessions := atomic.LoadInt64(&m.liveSessions)
	errors := atomic.LoadInt64(&m.broadcastErrors) + atomic.LoadInt64(&m.storeErrors)

	// Critical: over 90% of session capacity
	if sessions > config.MaxLiveSessions*9/10 {
		return "critical"
	}

	// Warning: over 80% capacity or some errors
	if sessions > config.MaxLiveSessions*8/10 || errors > 100 {
		return "warning"
	}

	return "healthy"
}
