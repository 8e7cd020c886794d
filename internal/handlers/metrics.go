package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/damione1/recording-view/internal/services"
)

// HandleMetrics returns pipeline and connection metrics
func HandleMetrics(metrics *services.Metrics) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, metrics.Snapshot())
	}
}

// HandleHealth returns server health status
func HandleHealth(metrics *services.Metrics) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snapshot := metrics.Snapshot()

		status := http.StatusOK
		if snapshot.HealthStatus == "critical" {
			status = http.StatusServiceUnavailable
		}

		response := map[string]interface{}{
			"status":         snapshot.HealthStatus,
			"active_viewers": snapshot.ActiveViewers,
			"active_bridges": snapshot.ActiveBridges,
			"live_sessions":  snapshot.LiveSessions,
			"uptime_seconds": snapshot.UptimeSeconds,
		}

		return e.JSON(status, response)
	}
}
