package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/pocketbase/pocketbase/core"
	"github.com/sirupsen/logrus"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/logger"
	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/security"
	"github.com/damione1/recording-view/internal/services"
)

type WSHandler struct {
	hub     *services.Hub
	manager *services.SessionManager
	metrics *services.Metrics
	decoder *services.EventDecoder
	limiter *security.RateLimiter
	origins *security.OriginValidator
}

func NewWSHandler(hub *services.Hub, manager *services.SessionManager, metrics *services.Metrics, cfg *config.Config) *WSHandler {
	return &WSHandler{
		hub:     hub,
		manager: manager,
		metrics: metrics,
		decoder: services.NewEventDecoder(),
		limiter: security.NewRateLimiter(cfg.BridgeRateLimit, config.RateLimitWindow),
		origins: security.NewOriginValidator(cfg.AllowedOrigins),
	}
}

// HandleIngest accepts the SDK bridge connection of a session and feeds its
// events into the live session until the bridge disconnects.
func (h *WSHandler) HandleIngest(re *core.RequestEvent) error {
	sessionID := re.Request.PathValue("id")
	if err := security.ValidateRecordID(sessionID); err != nil {
		return errorJSON(re, http.StatusBadRequest, "Invalid session ID")
	}

	session, err := h.manager.Open(sessionID)
	if err != nil {
		return openError(re, err)
	}

	conn, err := websocket.Accept(re.Response, re.Request, h.origins.GetAcceptOptions())
	if err != nil {
		logger.Session(sessionID).WithError(err).Error("❌ Bridge upgrade failed")
		return nil
	}
	conn.SetReadLimit(config.MaxBridgeMessageBytes)

	src := services.NewBridgeSource(conn, h.decoder, h.limiter, h.metrics)
	defer src.Close()

	h.metrics.IncrementBridges()
	defer h.metrics.DecrementBridges()

	log := logger.Session(sessionID).WithField("bridge", src.ID())
	log.Info("🔌 Bridge connected")

	err = session.Consume(re.Request.Context(), src)
	switch {
	case errors.Is(err, services.ErrSessionClosed):
		log.Info("Bridge detached from closed session")
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway,
		errors.Is(err, context.Canceled):
		log.Info("🔌 Bridge disconnected")
	default:
		log.WithError(err).Warn("❌ Bridge connection lost")
	}
	return nil
}

// HandleView accepts a viewer connection. The viewer gets the current layout
// right away and every update after it.
func (h *WSHandler) HandleView(re *core.RequestEvent) error {
	sessionID := re.Request.PathValue("id")
	if err := security.ValidateRecordID(sessionID); err != nil {
		return errorJSON(re, http.StatusBadRequest, "Invalid session ID")
	}

	if h.hub.ViewerCount(sessionID) >= config.MaxViewersPerSession {
		return errorJSON(re, http.StatusServiceUnavailable, "Too many viewers for this session")
	}

	session, err := h.manager.Open(sessionID)
	if err != nil {
		return openError(re, err)
	}

	conn, err := websocket.Accept(re.Response, re.Request, h.origins.GetAcceptOptions())
	if err != nil {
		logger.Session(sessionID).WithError(err).Error("❌ Viewer upgrade failed")
		return nil
	}

	client := services.NewClient(conn, h.hub, sessionID)
	h.hub.Register(client, func() *models.WSMessage {
		return services.LayoutMessage(sessionID, session.Update())
	})
	client.Start()

	logger.Session(sessionID).WithFields(logrus.Fields{
		"viewer": client.ID(),
	}).Info("👀 Viewer connected")

	<-client.Done()
	return nil
}

func openError(re *core.RequestEvent, err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return errorJSON(re, http.StatusNotFound, "Session not found")
	case errors.Is(err, services.ErrTooManySessions):
		return errorJSON(re, http.StatusServiceUnavailable, "Too many live sessions")
	default:
		return errorJSON(re, http.StatusInternalServerError, security.SanitizeErrorMessage(err))
	}
}
