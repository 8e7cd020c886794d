package handlers

import (
	"github.com/pocketbase/pocketbase/core"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/services"
)

type Dependencies struct {
	Store   *services.SessionStore
	Manager *services.SessionManager
	Hub     *services.Hub
	Metrics *services.Metrics
	Config  *config.Config
}

// RegisterRoutes mounts the REST, socket and metrics endpoints.
func RegisterRoutes(se *core.ServeEvent, deps *Dependencies) {
	sessions := NewSessionHandlers(deps.Store, deps.Manager, deps.Hub)
	ws := NewWSHandler(deps.Hub, deps.Manager, deps.Metrics, deps.Config)

	se.Router.POST("/api/sessions", sessions.CreateSession)
	se.Router.GET("/api/sessions", sessions.ListSessions)
	se.Router.GET("/api/sessions/{id}", sessions.GetSession)
	se.Router.DELETE("/api/sessions/{id}", sessions.DeleteSession)
	se.Router.GET("/api/sessions/{id}/layout", sessions.GetLayout)
	se.Router.DELETE("/api/sessions/{id}/live", sessions.CloseLive)

	se.Router.GET("/ws/sessions/{id}/ingest", ws.HandleIngest)
	se.Router.GET("/ws/sessions/{id}/view", ws.HandleView)

	se.Router.GET("/api/recview/metrics", HandleMetrics(deps.Metrics))
	se.Router.GET("/api/recview/health", HandleHealth(deps.Metrics))
}
