package services_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/services"
	"github.com/damione1/recording-view/internal/testutil"
)

func TestEventDecoder_Snapshot(t *testing.T) {
	d := services.NewEventDecoder()

	data := testutil.BridgeMessage(t, models.MsgTypeRosterSnapshot, map[string]interface{}{
		"participants": []interface{}{
			testutil.BridgeParticipant("p1", "Ada", "Negative"),
			testutil.BridgeParticipant("p2", "Grace", " affirmative "),
			map[string]interface{}{"id": "p3", "name": "Judy", "role": "judge", "videoEnabled": true},
			testutil.BridgeParticipant("p4", "Host", "host"),
		},
	})

	ev, err := d.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, models.EventSnapshot, ev.Kind)
	require.Len(t, ev.Participants, 4)

	assert.Equal(t, models.RoleNegative, ev.Participants[0].Role)
	assert.Equal(t, "Ada", ev.Participants[0].Name)
	assert.Equal(t, models.RoleAffirmative, ev.Participants[1].Role)
	assert.Equal(t, models.RoleJudge, ev.Participants[2].Role)
	assert.True(t, ev.Participants[2].VideoReady)
	assert.Equal(t, models.RoleUnrecognized, ev.Participants[3].Role)
}

func TestEventDecoder_ParticipantEvents(t *testing.T) {
	d := services.NewEventDecoder()

	t.Run("joined", func(t *testing.T) {
		ev, err := d.Decode(testutil.BridgeMessage(t, models.MsgTypeParticipantJoined, map[string]interface{}{
			"participant": testutil.BridgeParticipant("p1", "Ada", "solo"),
		}))
		require.NoError(t, err)
		assert.Equal(t, models.EventJoined, ev.Kind)
		assert.Equal(t, "p1", ev.Participant.ID)
		assert.Equal(t, models.RoleSolo, ev.Participant.Role)
	})

	t.Run("left by id", func(t *testing.T) {
		ev, err := d.Decode(testutil.BridgeMessage(t, models.MsgTypeParticipantLeft, map[string]interface{}{
			"participantId": "p1",
		}))
		require.NoError(t, err)
		assert.Equal(t, models.EventLeft, ev.Kind)
		assert.Equal(t, "p1", ev.ParticipantID)
	})

	t.Run("left by record", func(t *testing.T) {
		ev, err := d.Decode(testutil.BridgeMessage(t, models.MsgTypeParticipantLeft, map[string]interface{}{
			"participant": testutil.BridgeParticipant("p2", "Grace", "negative"),
		}))
		require.NoError(t, err)
		assert.Equal(t, "p2", ev.ParticipantID)
	})

	t.Run("active speaker", func(t *testing.T) {
		ev, err := d.Decode(testutil.BridgeMessage(t, models.MsgTypeActiveSpeaker, map[string]interface{}{
			"participantId": "p1",
		}))
		require.NoError(t, err)
		assert.Equal(t, models.EventActiveSpeaker, ev.Kind)
		assert.Equal(t, "p1", ev.ParticipantID)
	})

	t.Run("empty active speaker clears", func(t *testing.T) {
		ev, err := d.Decode(testutil.BridgeMessage(t, models.MsgTypeActiveSpeaker, map[string]interface{}{}))
		require.NoError(t, err)
		assert.Equal(t, models.EventActiveSpeaker, ev.Kind)
		assert.Empty(t, ev.ParticipantID)
	})

	t.Run("video update", func(t *testing.T) {
		ev, err := d.Decode(testutil.BridgeMessage(t, models.MsgTypeVideoUpdate, map[string]interface{}{
			"participantId": "p1",
			"videoEnabled":  true,
		}))
		require.NoError(t, err)
		assert.Equal(t, models.EventVideoUpdate, ev.Kind)
		assert.True(t, ev.VideoReady)
	})
}

func TestEventDecoder_Malformed(t *testing.T) {
	d := services.NewEventDecoder()

	tooMany := make([]interface{}, 501)
	for i := range tooMany {
		tooMany[i] = testutil.BridgeParticipant("p"+strings.Repeat("x", i%5), "N", "solo")
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"not json", []byte("{nope")},
		{"unknown type", testutil.BridgeMessage(t, "vote", map[string]string{})},
		{"missing payload", []byte(`{"type":"participant_left"}`)},
		{"left without id", testutil.BridgeMessage(t, models.MsgTypeParticipantLeft, map[string]string{})},
		{"joined with bad id", testutil.BridgeMessage(t, models.MsgTypeParticipantJoined, map[string]interface{}{
			"participant": testutil.BridgeParticipant("<script>", "x", "solo"),
		})},
		{"snapshot too large", testutil.BridgeMessage(t, models.MsgTypeRosterSnapshot, map[string]interface{}{
			"participants": tooMany,
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode(tt.data)
			assert.ErrorIs(t, err, services.ErrMalformedEvent)
		})
	}
}

func TestEventDecoder_SanitizesNames(t *testing.T) {
	d := services.NewEventDecoder()

	ev, err := d.Decode(testutil.BridgeMessage(t, models.MsgTypeParticipantJoined, map[string]interface{}{
		"participant": testutil.BridgeParticipant("p1", "  Ada\x00 "+strings.Repeat("L", 80), "judge"),
	}))
	require.NoError(t, err)
	assert.NotContains(t, ev.Participant.Name, "\x00")
	assert.LessOrEqual(t, len([]rune(ev.Participant.Name)), 50)
}

func TestEventDecoder_DecodeRoster(t *testing.T) {
	d := services.NewEventDecoder()

	t.Run("bare array", func(t *testing.T) {
		ps, err := d.DecodeRoster([]byte(`[{"id":"a","presetName":"negative"},{"id":"b","role":"Judge"}]`))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, testutil.IDs(ps))
		assert.Equal(t, models.RoleJudge, ps[1].Role)
	})

	t.Run("snapshot message", func(t *testing.T) {
		ps, err := d.DecodeRoster(testutil.BridgeMessage(t, models.MsgTypeRosterSnapshot, map[string]interface{}{
			"participants": []interface{}{testutil.BridgeParticipant("a", "A", "solo")},
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, testutil.IDs(ps))
	})

	t.Run("other message type", func(t *testing.T) {
		_, err := d.DecodeRoster(testutil.BridgeMessage(t, models.MsgTypeParticipantLeft, map[string]string{"participantId": "a"}))
		assert.ErrorIs(t, err, services.ErrMalformedEvent)
	})
}
