package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/security"
)

// bridgeParticipant is a participant record as the SDK bridge sends it.
// presetName carries the role; role is accepted as an alias.
type bridgeParticipant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PresetName   string `json:"presetName"`
	Role         string `json:"role"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type bridgeMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type snapshotPayload struct {
	Participants []bridgeParticipant `json:"participants"`
}

type participantPayload struct {
	Participant bridgeParticipant `json:"participant"`
}

type participantRefPayload struct {
	ParticipantID string             `json:"participantId"`
	Participant   *bridgeParticipant `json:"participant"`
	VideoEnabled  bool               `json:"videoEnabled"`
}

// EventDecoder turns raw bridge messages into typed meeting events. Role
// strings are decoded here and nowhere else.
type EventDecoder struct{}

func NewEventDecoder() *EventDecoder {
	return &EventDecoder{}
}

// Decode parses one bridge message. Every failure wraps ErrMalformedEvent.
func (d *EventDecoder) Decode(data []byte) (models.MeetingEvent, error) {
	var msg bridgeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return models.MeetingEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if !security.IsValidBridgeMessageType(msg.Type) {
		return models.MeetingEvent{}, fmt.Errorf("%w: unknown message type %q", ErrMalformedEvent, msg.Type)
	}

	switch msg.Type {
	case models.MsgTypeRosterSnapshot:
		return d.decodeSnapshot(msg.Payload)
	case models.MsgTypeParticipantJoined:
		return d.decodeJoined(msg.Payload)
	case models.MsgTypeParticipantLeft:
		id, _, err := d.decodeRef(msg.Payload, true)
		if err != nil {
			return models.MeetingEvent{}, err
		}
		return models.MeetingEvent{Kind: models.EventLeft, ParticipantID: id}, nil
	case models.MsgTypeActiveSpeaker:
		// An empty ID clears the active speaker.
		id, _, err := d.decodeRef(msg.Payload, false)
		if err != nil {
			return models.MeetingEvent{}, err
		}
		return models.MeetingEvent{Kind: models.EventActiveSpeaker, ParticipantID: id}, nil
	case models.MsgTypeVideoUpdate:
		id, ready, err := d.decodeRef(msg.Payload, true)
		if err != nil {
			return models.MeetingEvent{}, err
		}
		return models.MeetingEvent{Kind: models.EventVideoUpdate, ParticipantID: id, VideoReady: ready}, nil
	}

	return models.MeetingEvent{}, fmt.Errorf("%w: unhandled message type %q", ErrMalformedEvent, msg.Type)
}

func (d *EventDecoder) decodeSnapshot(raw json.RawMessage) (models.MeetingEvent, error) {
	var payload snapshotPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return models.MeetingEvent{}, err
	}
	if len(payload.Participants) > config.MaxSnapshotSize {
		return models.MeetingEvent{}, fmt.Errorf("%w: snapshot has %d participants (max %d)",
			ErrMalformedEvent, len(payload.Participants), config.MaxSnapshotSize)
	}

	participants := make([]models.Participant, 0, len(payload.Participants))
	for i, bp := range payload.Participants {
		p, err := d.participant(bp)
		if err != nil {
			return models.MeetingEvent{}, fmt.Errorf("participant %d: %w", i, err)
		}
		participants = append(participants, p)
	}
	return models.MeetingEvent{Kind: models.EventSnapshot, Participants: participants}, nil
}

func (d *EventDecoder) decodeJoined(raw json.RawMessage) (models.MeetingEvent, error) {
	var payload participantPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return models.MeetingEvent{}, err
	}
	p, err := d.participant(payload.Participant)
	if err != nil {
		return models.MeetingEvent{}, err
	}
	return models.MeetingEvent{Kind: models.EventJoined, Participant: p}, nil
}

// decodeRef reads a payload that names a participant either by
// participantId or by a full participant record.
func (d *EventDecoder) decodeRef(raw json.RawMessage, required bool) (string, bool, error) {
	var payload participantRefPayload
	if err := unmarshalPayload(raw, &payload); err != nil {
		return "", false, err
	}

	id := payload.ParticipantID
	videoEnabled := payload.VideoEnabled
	if id == "" && payload.Participant != nil {
		id = payload.Participant.ID
		videoEnabled = videoEnabled || payload.Participant.VideoEnabled
	}

	if id == "" {
		if required {
			return "", false, fmt.Errorf("%w: missing participant id", ErrMalformedEvent)
		}
		return "", false, nil
	}
	if err := security.ValidateParticipantID(id); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return id, videoEnabled, nil
}

func (d *EventDecoder) participant(bp bridgeParticipant) (models.Participant, error) {
	if err := security.ValidateParticipantID(bp.ID); err != nil {
		return models.Participant{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	preset := bp.PresetName
	if preset == "" {
		preset = bp.Role
	}

	return models.Participant{
		ID:         bp.ID,
		Name:       security.SanitizeDisplayName(bp.Name),
		Role:       models.ParseRole(preset),
		VideoReady: bp.VideoEnabled,
	}, nil
}

func unmarshalPayload(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrMalformedEvent)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

// DecodeRoster parses a roster given either as a bare JSON array of bridge
// participants or as a roster_snapshot message.
func (d *EventDecoder) DecodeRoster(data []byte) ([]models.Participant, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		trimmed = []byte(`{"participants":` + string(trimmed) + `}`)
		ev, err := d.decodeSnapshot(trimmed)
		return ev.Participants, err
	}

	ev, err := d.Decode(trimmed)
	if err != nil {
		return nil, err
	}
	if ev.Kind != models.EventSnapshot {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrMalformedEvent, models.MsgTypeRosterSnapshot, ev.Kind)
	}
	return ev.Participants, nil
}
