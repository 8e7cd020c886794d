package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/handlers"
	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/services"
	"github.com/damione1/recording-view/internal/testutil"
)

type liveServer struct {
	*testutil.TestServer
	manager *services.SessionManager
	hub     *services.Hub
}

func newLiveServer(t *testing.T) *liveServer {
	t.Helper()

	app := newApp(t)
	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	store := services.NewSessionStore(app)
	manager := services.NewSessionManager(store, hub, metrics, 0)

	ts := testutil.NewTestServer(t, app, func(se *core.ServeEvent) {
		handlers.RegisterRoutes(se, &handlers.Dependencies{
			Store:   store,
			Manager: manager,
			Hub:     hub,
			Metrics: metrics,
			Config:  config.Default(),
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		manager.CloseAll()
		cancel()
	})

	return &liveServer{TestServer: ts, manager: manager, hub: hub}
}

func (ls *liveServer) ingestURL(id string) string {
	return ls.WSURL("/ws/sessions/" + id + "/ingest")
}

func (ls *liveServer) viewURL(id string) string {
	return ls.WSURL("/ws/sessions/" + id + "/view")
}

func TestWebSocket_BridgeToViewer(t *testing.T) {
	ls := newLiveServer(t)

	viewer := testutil.DialWS(t, ls.viewURL(sessionID))
	initial, ok := viewer.WaitForLayout(func(models.LayoutUpdate) bool { return true }, 2*time.Second)
	require.True(t, ok, "viewer should get the current layout on connect")
	assert.Equal(t, models.TemplateGrid, initial.Assignment.Template)
	assert.Zero(t, initial.Assignment.Placed())

	bridge := testutil.DialWS(t, ls.ingestURL(sessionID))
	require.NoError(t, bridge.Send(testutil.BridgeMessage(t, models.MsgTypeRosterSnapshot, map[string]interface{}{
		"participants": []interface{}{
			testutil.BridgeParticipant("n1", "Neg", "negative"),
			testutil.BridgeParticipant("a1", "Aff", "affirmative"),
			testutil.BridgeParticipant("j1", "Judge", "judge"),
		},
	})))

	oneOnOne, ok := viewer.WaitForLayout(func(u models.LayoutUpdate) bool {
		return u.Assignment.Template == models.TemplateOneOnOne
	}, 2*time.Second)
	require.True(t, ok)
	assert.Greater(t, oneOnOne.Version, initial.Version)

	require.NoError(t, bridge.Send(testutil.BridgeMessage(t, models.MsgTypeParticipantJoined, map[string]interface{}{
		"participant": testutil.BridgeParticipant("s1", "Solo", "solo"),
	})))

	grid, ok := viewer.WaitForLayout(func(u models.LayoutUpdate) bool {
		return u.Assignment.Template == models.TemplateGrid && u.Assignment.Placed() == 4
	}, 2*time.Second)
	require.True(t, ok)
	assert.Greater(t, grid.Version, oneOnOne.Version)

	assert.Equal(t, 1, ls.hub.ViewerCount(sessionID))
	live, ok := ls.manager.Live(sessionID)
	require.True(t, ok)
	assert.Equal(t, 4, live.Roster().Len())
}

func TestWebSocket_UnknownSessionIsRefused(t *testing.T) {
	ls := newLiveServer(t)

	_, err := testutil.TryDialWS(ls.ingestURL("missing00000001"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, err = testutil.TryDialWS(ls.viewURL("not-an-id"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestWebSocket_OversizedBridgeMessage(t *testing.T) {
	ls := newLiveServer(t)

	bridge := testutil.DialWS(t, ls.ingestURL(sessionID))
	oversized := []byte(`{"type":"roster_snapshot","payload":"` + strings.Repeat("x", config.MaxBridgeMessageBytes) + `"}`)
	go func() { _ = bridge.Send(oversized) }()

	status, ok := bridge.WaitForClose(10 * time.Second)
	require.True(t, ok, "server should drop a bridge that exceeds the read limit")
	assert.Equal(t, websocket.StatusMessageTooBig, status)
}

func TestWebSocket_ClosingLiveSessionReleasesBridge(t *testing.T) {
	ls := newLiveServer(t)

	bridge := testutil.DialWS(t, ls.ingestURL(sessionID))
	require.Eventually(t, func() bool {
		_, ok := ls.manager.Live(sessionID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodDelete, ls.URL+"/api/sessions/"+sessionID+"/live", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	status, ok := bridge.WaitForClose(2 * time.Second)
	require.True(t, ok, "an idle bridge should be disconnected when its session closes")
	assert.Equal(t, websocket.StatusNormalClosure, status)
}
