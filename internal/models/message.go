package models

type WSMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Bridge → Server message types
const (
	MsgTypeRosterSnapshot    = "roster_snapshot"
	MsgTypeParticipantJoined = "participant_joined"
	MsgTypeParticipantLeft   = "participant_left"
	MsgTypeActiveSpeaker     = "active_speaker"
	MsgTypeVideoUpdate       = "video_update"
)

// Server → Viewer message types
const (
	MsgTypeLayoutUpdate = "layout_update" // Sent on connect and after every recomputation
	MsgTypeError        = "error"
)

type EventKind string

const (
	EventSnapshot      EventKind = "snapshot"
	EventJoined        EventKind = "joined"
	EventLeft          EventKind = "left"
	EventActiveSpeaker EventKind = "active_speaker"
	EventVideoUpdate   EventKind = "video_update"
)

// MeetingEvent is a decoded notification from the conferencing SDK. Only the
// fields relevant to Kind are set.
type MeetingEvent struct {
	Kind          EventKind
	Participants  []Participant // EventSnapshot
	Participant   Participant   // EventJoined
	ParticipantID string        // EventLeft, EventActiveSpeaker, EventVideoUpdate
	VideoReady    bool          // EventVideoUpdate
}

// LayoutUpdate is the payload of a MsgTypeLayoutUpdate message.
type LayoutUpdate struct {
	Assignment    Assignment `json:"assignment"`
	ActiveSpeaker string     `json:"activeSpeaker,omitempty"`
	Version       uint64     `json:"version"`
}
