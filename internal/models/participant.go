package models

import "strings"

// Role is the debate role a participant joined with.
type Role string

const (
	RoleNegative     Role = "negative"
	RoleAffirmative  Role = "affirmative"
	RoleJudge        Role = "judge"
	RoleSolo         Role = "solo"
	RoleUnrecognized Role = "unrecognized"
)

// ParseRole decodes the SDK preset name into a Role. Anything that is not one
// of the four debate roles maps to RoleUnrecognized.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleNegative:
		return RoleNegative
	case RoleAffirmative:
		return RoleAffirmative
	case RoleJudge:
		return RoleJudge
	case RoleSolo:
		return RoleSolo
	default:
		return RoleUnrecognized
	}
}

// Recognized reports whether r places a participant into a layout bucket.
func (r Role) Recognized() bool {
	switch r {
	case RoleNegative, RoleAffirmative, RoleJudge, RoleSolo:
		return true
	}
	return false
}

// Participant is one member of the call as seen by the layout.
type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	VideoReady bool   `json:"videoReady"`
}

// NewParticipant returns a participant whose video is not ready yet.
func NewParticipant(id, name string, role Role) Participant {
	return Participant{
		ID:   id,
		Name: name,
		Role: role,
	}
}
