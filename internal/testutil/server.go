package testutil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
)

// TestServer serves the PocketBase router of a test app over a real
// listener, so websocket routes can be dialed.
type TestServer struct {
	App *tests.TestApp
	URL string
}

// NewTestServer builds the default router for app, lets register add the
// project routes, and starts listening. Both the listener and the app are
// torn down when the test ends.
func NewTestServer(t testing.TB, app *tests.TestApp, register func(*core.ServeEvent)) *TestServer {
	t.Helper()

	router, err := apis.NewRouter(app)
	if err != nil {
		t.Fatalf("Failed to build router: %v", err)
	}

	se := &core.ServeEvent{App: app, Router: router}
	register(se)

	mux, err := router.BuildMux()
	if err != nil {
		t.Fatalf("Failed to build mux: %v", err)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		app.Cleanup()
	})

	return &TestServer{App: app, URL: srv.URL}
}

// WSURL returns the websocket URL of path on the server.
func (ts *TestServer) WSURL(path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}
