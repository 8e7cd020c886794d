package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/services"
	"github.com/damione1/recording-view/internal/testutil"
)

func startHub(t *testing.T) (*services.Hub, *services.Metrics, context.CancelFunc) {
	t.Helper()
	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, metrics, cancel
}

func decodeMessages(t *testing.T, raw [][]byte) []models.WSMessage {
	t.Helper()
	out := make([]models.WSMessage, 0, len(raw))
	for _, data := range raw {
		var msg models.WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		out = append(out, msg)
	}
	return out
}

func TestHub_RegisterSendsInitialMessage(t *testing.T) {
	hub, metrics, _ := startHub(t)

	conn := testutil.NewMockWSConn()
	client := services.NewClient(conn, hub, "s1")
	hub.Register(client, func() *models.WSMessage {
		return services.LayoutMessage("s1", models.LayoutUpdate{Version: 7})
	})
	client.Start()

	require.Eventually(t, func() bool {
		return len(conn.ReceivedMessages()) == 1
	}, time.Second, 10*time.Millisecond)

	msgs := decodeMessages(t, conn.ReceivedMessages())
	assert.Equal(t, models.MsgTypeLayoutUpdate, msgs[0].Type)
	assert.Equal(t, "s1", msgs[0].SessionID)

	assert.Equal(t, 1, hub.ViewerCount("s1"))
	assert.Equal(t, int64(1), metrics.Snapshot().ActiveViewers)
}

func TestHub_BroadcastReachesOnlySessionViewers(t *testing.T) {
	hub, _, _ := startHub(t)

	connA := testutil.NewMockWSConn()
	connB := testutil.NewMockWSConn()
	clientA := services.NewClient(connA, hub, "s1")
	clientB := services.NewClient(connB, hub, "s2")
	hub.Register(clientA, nil)
	hub.Register(clientB, nil)
	clientA.Start()
	clientB.Start()

	require.Eventually(t, func() bool {
		return hub.ViewerCount("s1") == 1 && hub.ViewerCount("s2") == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToSession("s1", services.LayoutMessage("s1", models.LayoutUpdate{Version: 1}))

	require.Eventually(t, func() bool {
		return len(connA.ReceivedMessages()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, connB.ReceivedMessages())
}

func TestHub_ViewerDisconnectUnregisters(t *testing.T) {
	hub, metrics, _ := startHub(t)

	conn := testutil.NewMockWSConn()
	client := services.NewClient(conn, hub, "s1")
	hub.Register(client, nil)
	client.Start()

	require.Eventually(t, func() bool { return hub.ViewerCount("s1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(0, "gone"))

	require.Eventually(t, func() bool { return hub.ViewerCount("s1") == 0 }, time.Second, 10*time.Millisecond)
	<-client.Done()
	assert.Zero(t, metrics.Snapshot().ActiveViewers)
}

func TestHub_ShutdownClosesViewers(t *testing.T) {
	hub, _, cancel := startHub(t)

	conn := testutil.NewMockWSConn()
	client := services.NewClient(conn, hub, "s1")
	hub.Register(client, nil)
	client.Start()
	require.Eventually(t, func() bool { return hub.ViewerCount("s1") == 1 }, time.Second, 10*time.Millisecond)

	cancel()

	require.Eventually(t, conn.IsClosed, time.Second, 10*time.Millisecond)

	// Calls after shutdown must not block
	hub.BroadcastToSession("s1", services.LayoutMessage("s1", models.LayoutUpdate{}))
	late := services.NewClient(testutil.NewMockWSConn(), hub, "s1")
	hub.Register(late, nil)
	<-late.Done()
}

func TestClient_SendAfterClose(t *testing.T) {
	hub, _, _ := startHub(t)

	client := services.NewClient(testutil.NewMockWSConn(), hub, "s1")
	client.Close()

	assert.False(t, client.Send([]byte("x")))
}
