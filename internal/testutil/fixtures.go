package testutil

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/damione1/recording-view/internal/models"
)

// Debater builds a participant with a name derived from id
func Debater(id string, role models.Role) models.Participant {
	return models.NewParticipant(id, "Name "+id, role)
}

// Roster builds a roster with the given number of participants per role,
// in the order negative, affirmative, judge, solo. IDs are <role>-<n>.
func Roster(negative, affirmative, judges, solos int) []models.Participant {
	var out []models.Participant
	add := func(role models.Role, n int) {
		for i := 1; i <= n; i++ {
			out = append(out, Debater(fmt.Sprintf("%s-%d", role, i), role))
		}
	}
	add(models.RoleNegative, negative)
	add(models.RoleAffirmative, affirmative)
	add(models.RoleJudge, judges)
	add(models.RoleSolo, solos)
	return out
}

// IDs returns the participant IDs in order
func IDs(participants []models.Participant) []string {
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// BridgeMessage encodes a bridge message with the given type and payload
func BridgeMessage(t *testing.T, msgType string, payload interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(map[string]interface{}{
		"type":    msgType,
		"payload": payload,
	})
	if err != nil {
		t.Fatalf("Failed to encode bridge message: %v", err)
	}
	return data
}

// BridgeParticipant is a participant as the SDK bridge sends it
func BridgeParticipant(id, name, preset string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"name":       name,
		"presetName": preset,
	}
}
