package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/damione1/recording-view/internal/layout"
	"github.com/damione1/recording-view/internal/logger"
	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/security"
	"github.com/damione1/recording-view/internal/services"
)

const listLimit = 100

// SessionRepository is the persistence the REST handlers need.
type SessionRepository interface {
	CreateSession(name, meetingID string) (*models.RecordingSession, error)
	GetSession(id string) (*models.RecordingSession, error)
	ListSessions(limit int) ([]*models.RecordingSession, error)
	FindByMeeting(meetingID string) (*models.RecordingSession, error)
	DeleteSession(id string) error
}

// ViewerCounter reports connected viewers per session.
type ViewerCounter interface {
	ViewerCount(sessionID string) int
}

type SessionHandlers struct {
	store   SessionRepository
	manager *services.SessionManager
	viewers ViewerCounter
}

func NewSessionHandlers(store SessionRepository, manager *services.SessionManager, viewers ViewerCounter) *SessionHandlers {
	return &SessionHandlers{
		store:   store,
		manager: manager,
		viewers: viewers,
	}
}

type createSessionRequest struct {
	Name      string `json:"name"`
	MeetingID string `json:"meetingId"`
}

type sessionResponse struct {
	*models.RecordingSession
	Live    bool `json:"live"`
	Viewers int  `json:"viewers"`
}

type layoutResponse struct {
	SessionID string              `json:"sessionId"`
	Live      bool                `json:"live"`
	Layout    models.LayoutUpdate `json:"layout"`
}

func (h *SessionHandlers) CreateSession(e *core.RequestEvent) error {
	var req createSessionRequest
	if err := e.BindBody(&req); err != nil {
		return errorJSON(e, http.StatusBadRequest, "Invalid request body")
	}

	name, err := security.ValidateSessionName(req.Name)
	if err != nil {
		return errorJSON(e, http.StatusBadRequest, err.Error())
	}
	if err := security.ValidateMeetingID(req.MeetingID); err != nil {
		return errorJSON(e, http.StatusBadRequest, err.Error())
	}

	session, err := h.store.CreateSession(name, req.MeetingID)
	if err != nil {
		logger.Logger.WithError(err).Error("Failed to create session")
		return errorJSON(e, http.StatusInternalServerError, security.SanitizeErrorMessage(err))
	}

	logger.Session(session.ID).WithField("meeting", session.MeetingID).Info("✓ Session created")
	return e.JSON(http.StatusCreated, h.describe(session))
}

// ListSessions lists recent sessions. With ?meetingId= it returns at most the
// latest session bound to that meeting.
func (h *SessionHandlers) ListSessions(e *core.RequestEvent) error {
	if meetingID := e.Request.URL.Query().Get("meetingId"); meetingID != "" {
		if err := security.ValidateMeetingID(meetingID); err != nil {
			return errorJSON(e, http.StatusBadRequest, err.Error())
		}
		session, err := h.store.FindByMeeting(meetingID)
		if err != nil {
			return e.JSON(http.StatusOK, []sessionResponse{})
		}
		return e.JSON(http.StatusOK, []sessionResponse{h.describe(session)})
	}

	sessions, err := h.store.ListSessions(listLimit)
	if err != nil {
		logger.Logger.WithError(err).Error("Failed to list sessions")
		return errorJSON(e, http.StatusInternalServerError, security.SanitizeErrorMessage(err))
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, h.describe(s))
	}
	return e.JSON(http.StatusOK, out)
}

func (h *SessionHandlers) GetSession(e *core.RequestEvent) error {
	session, reqErr := h.lookup(e)
	if reqErr != nil {
		return reqErr.write(e)
	}
	return e.JSON(http.StatusOK, h.describe(session))
}

// GetLayout returns the current assignment. A session with no live state
// reports the layout of an empty roster.
func (h *SessionHandlers) GetLayout(e *core.RequestEvent) error {
	session, reqErr := h.lookup(e)
	if reqErr != nil {
		return reqErr.write(e)
	}

	resp := layoutResponse{SessionID: session.ID}
	if live, ok := h.manager.Live(session.ID); ok {
		resp.Live = true
		resp.Layout = live.Update()
	} else {
		resp.Layout = models.LayoutUpdate{Assignment: layout.Select(nil, "")}
	}
	return e.JSON(http.StatusOK, resp)
}

// CloseLive flushes and stops the live state of a session.
func (h *SessionHandlers) CloseLive(e *core.RequestEvent) error {
	session, reqErr := h.lookup(e)
	if reqErr != nil {
		return reqErr.write(e)
	}

	if !h.manager.Close(session.ID) {
		return errorJSON(e, http.StatusNotFound, "Session is not live")
	}
	return e.NoContent(http.StatusNoContent)
}

// DeleteSession stops any live state and removes the session record.
func (h *SessionHandlers) DeleteSession(e *core.RequestEvent) error {
	session, reqErr := h.lookup(e)
	if reqErr != nil {
		return reqErr.write(e)
	}

	h.manager.Close(session.ID)
	if err := h.store.DeleteSession(session.ID); err != nil {
		logger.Session(session.ID).WithError(err).Error("Failed to delete session")
		return errorJSON(e, http.StatusInternalServerError, security.SanitizeErrorMessage(err))
	}

	logger.Session(session.ID).Info("🗑️  Session deleted")
	return e.NoContent(http.StatusNoContent)
}

// lookup validates the {id} path value and loads the session.
func (h *SessionHandlers) lookup(e *core.RequestEvent) (*models.RecordingSession, *requestError) {
	id := e.Request.PathValue("id")
	if err := security.ValidateRecordID(id); err != nil {
		return nil, &requestError{http.StatusBadRequest, "Invalid session ID"}
	}

	session, err := h.store.GetSession(id)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return nil, &requestError{http.StatusNotFound, "Session not found"}
		}
		return nil, &requestError{http.StatusInternalServerError, security.SanitizeErrorMessage(err)}
	}
	return session, nil
}

func (h *SessionHandlers) describe(s *models.RecordingSession) sessionResponse {
	_, live := h.manager.Live(s.ID)
	return sessionResponse{
		RecordingSession: s,
		Live:             live,
		Viewers:          h.viewers.ViewerCount(s.ID),
	}
}

type requestError struct {
	status  int
	message string
}

func (re *requestError) write(e *core.RequestEvent) error {
	return errorJSON(e, re.status, re.message)
}

func errorJSON(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, map[string]string{"error": message})
}
