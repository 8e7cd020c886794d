package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/damione1/recording-view/internal/models"
)

const sessionsCollection = "recording_sessions"

// SessionStore persists recording sessions in PocketBase. Only session
// metadata and the shape of the last layout are stored; rosters are not.
type SessionStore struct {
	app core.App
}

func NewSessionStore(app core.App) *SessionStore {
	return &SessionStore{
		app: app,
	}
}

// CreateSession creates a new session record bound to an SDK meeting
func (ss *SessionStore) CreateSession(name, meetingID string) (*models.RecordingSession, error) {
	collection, err := ss.app.FindCollectionByNameOrId(sessionsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions collection: %w", err)
	}

	now := time.Now()
	record := core.NewRecord(collection)
	record.Set("name", name)
	record.Set("meeting_id", meetingID)
	record.Set("last_template", string(models.TemplateGrid))
	record.Set("participant_count", 0)
	record.Set("created_at", now)
	record.Set("last_activity", now)

	if err := ss.app.Save(record); err != nil {
		return nil, fmt.Errorf("failed to save session record: %w", err)
	}

	return recordToSession(record), nil
}

// GetSession retrieves a session by ID
func (ss *SessionStore) GetSession(id string) (*models.RecordingSession, error) {
	record, err := ss.app.FindRecordById(sessionsCollection, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return recordToSession(record), nil
}

// ListSessions returns sessions ordered by most recent activity
func (ss *SessionStore) ListSessions(limit int) ([]*models.RecordingSession, error) {
	records, err := ss.app.FindRecordsByFilter(
		sessionsCollection,
		"id != ''",
		"-last_activity",
		limit,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]*models.RecordingSession, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, recordToSession(r))
	}
	return sessions, nil
}

// FindByMeeting returns the most recently active session for an SDK meeting
func (ss *SessionStore) FindByMeeting(meetingID string) (*models.RecordingSession, error) {
	records, err := ss.app.FindRecordsByFilter(
		sessionsCollection,
		"meeting_id = {:meetingId}",
		"-last_activity",
		1,
		0,
		map[string]any{"meetingId": meetingID},
	)
	if err != nil || len(records) == 0 {
		return nil, ErrSessionNotFound
	}
	return recordToSession(records[0]), nil
}

// SaveLayout stores the template and placed participant count of the
// current layout and bumps last_activity.
func (ss *SessionStore) SaveLayout(id string, assignment models.Assignment) error {
	record, err := ss.app.FindRecordById(sessionsCollection, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}

	record.Set("last_template", string(assignment.Template))
	record.Set("participant_count", assignment.Placed())
	record.Set("last_activity", time.Now())

	if err := ss.app.Save(record); err != nil {
		return fmt.Errorf("failed to save layout: %w", err)
	}
	return nil
}

// DeleteSession removes a session record
func (ss *SessionStore) DeleteSession(id string) error {
	record, err := ss.app.FindRecordById(sessionsCollection, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return ss.app.Delete(record)
}

func recordToSession(record *core.Record) *models.RecordingSession {
	return &models.RecordingSession{
		ID:               record.Id,
		Name:             record.GetString("name"),
		MeetingID:        record.GetString("meeting_id"),
		LastTemplate:     models.Template(record.GetString("last_template")),
		ParticipantCount: record.GetInt("participant_count"),
		CreatedAt:        record.GetDateTime("created_at").Time(),
		LastActivity:     record.GetDateTime("last_activity").Time(),
	}
}
