package models

import (
	"time"
)

// RecordingSession is a data transfer object for a persisted session.
// Live roster state is not stored; only the last layout shape is.
type RecordingSession struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	MeetingID        string    `json:"meetingId"`
	LastTemplate     Template  `json:"lastTemplate,omitempty"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
	LastActivity     time.Time `json:"lastActivity"`
}
