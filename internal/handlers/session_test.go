package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"

	"github.com/damione1/recording-view/internal/config"
	"github.com/damione1/recording-view/internal/handlers"
	"github.com/damione1/recording-view/internal/models"
	"github.com/damione1/recording-view/internal/services"
	"github.com/damione1/recording-view/internal/testutil"
)

const sessionID = "debate000000001"

func newApp(t testing.TB) *tests.TestApp {
	app := testutil.NewTestApp(t)
	testutil.CreateSessionRecord(t, app, sessionID, "Finals", "meet-42")
	return app
}

// mount registers the routes against app; before, if set, runs against the
// manager before the request.
func mount(before func(*services.SessionManager)) func(testing.TB, *tests.TestApp, *core.ServeEvent) {
	return func(t testing.TB, app *tests.TestApp, e *core.ServeEvent) {
		metrics := services.NewMetrics()
		hub := services.NewHub(metrics)
		store := services.NewSessionStore(app)
		manager := services.NewSessionManager(store, hub, metrics, 0)

		handlers.RegisterRoutes(e, &handlers.Dependencies{
			Store:   store,
			Manager: manager,
			Hub:     hub,
			Metrics: metrics,
			Config:  config.Default(),
		})

		if before != nil {
			before(manager)
		}
	}
}

func TestSessionEndpoints(t *testing.T) {
	scenarios := []tests.ApiScenario{
		{
			Name:           "create session",
			Method:         http.MethodPost,
			URL:            "/api/sessions",
			Body:           strings.NewReader(`{"name":"Quarter final","meetingId":"meet-7"}`),
			Headers:        map[string]string{"Content-Type": "application/json"},
			ExpectedStatus: http.StatusCreated,
			ExpectedContent: []string{
				`"name":"Quarter final"`,
				`"meetingId":"meet-7"`,
				`"live":false`,
			},
			TestAppFactory: newApp,
			BeforeTestFunc: mount(nil),
		},
		{
			Name:            "create session rejects a bad name",
			Method:          http.MethodPost,
			URL:             "/api/sessions",
			Body:            strings.NewReader(`{"name":"<script>","meetingId":"meet-7"}`),
			Headers:         map[string]string{"Content-Type": "application/json"},
			ExpectedStatus:  http.StatusBadRequest,
			ExpectedContent: []string{`"error"`},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:            "create session rejects a missing meeting",
			Method:          http.MethodPost,
			URL:             "/api/sessions",
			Body:            strings.NewReader(`{"name":"Finals"}`),
			Headers:         map[string]string{"Content-Type": "application/json"},
			ExpectedStatus:  http.StatusBadRequest,
			ExpectedContent: []string{"meeting ID cannot be empty"},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:            "list sessions",
			Method:          http.MethodGet,
			URL:             "/api/sessions",
			ExpectedStatus:  http.StatusOK,
			ExpectedContent: []string{`"id":"` + sessionID + `"`},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:            "get session",
			Method:          http.MethodGet,
			URL:             "/api/sessions/" + sessionID,
			ExpectedStatus:  http.StatusOK,
			ExpectedContent: []string{`"name":"Finals"`, `"viewers":0`},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:            "get unknown session",
			Method:          http.MethodGet,
			URL:             "/api/sessions/missing00000000",
			ExpectedStatus:  http.StatusNotFound,
			ExpectedContent: []string{"Session not found"},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:            "get session with invalid id",
			Method:          http.MethodGet,
			URL:             "/api/sessions/bad-id",
			ExpectedStatus:  http.StatusBadRequest,
			ExpectedContent: []string{"Invalid session ID"},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:            "layout of a session that is not live",
			Method:          http.MethodGet,
			URL:             "/api/sessions/" + sessionID + "/layout",
			ExpectedStatus:  http.StatusOK,
			ExpectedContent: []string{`"live":false`, `"template":"grid"`},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:           "layout of a live session",
			Method:         http.MethodGet,
			URL:            "/api/sessions/" + sessionID + "/layout",
			ExpectedStatus: http.StatusOK,
			ExpectedContent: []string{
				`"live":true`,
				`"template":"one_on_one"`,
				`"version":1`,
			},
			TestAppFactory: newApp,
			BeforeTestFunc: mount(func(sm *services.SessionManager) {
				s, err := sm.Open(sessionID)
				if err != nil {
					panic(err)
				}
				_ = s.Apply(models.MeetingEvent{
					Kind:         models.EventSnapshot,
					Participants: testutil.Roster(1, 1, 1, 0),
				})
			}),
		},
		{
			Name:            "close a session that is not live",
			Method:          http.MethodDelete,
			URL:             "/api/sessions/" + sessionID + "/live",
			ExpectedStatus:  http.StatusNotFound,
			ExpectedContent: []string{"Session is not live"},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:           "close a live session",
			Method:         http.MethodDelete,
			URL:            "/api/sessions/" + sessionID + "/live",
			ExpectedStatus: http.StatusNoContent,
			TestAppFactory: newApp,
			BeforeTestFunc: mount(func(sm *services.SessionManager) {
				if _, err := sm.Open(sessionID); err != nil {
					panic(err)
				}
			}),
		},
		{
			Name:            "list sessions by meeting",
			Method:          http.MethodGet,
			URL:             "/api/sessions?meetingId=meet-42",
			ExpectedStatus:  http.StatusOK,
			ExpectedContent: []string{`"id":"` + sessionID + `"`},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:            "list sessions by unknown meeting",
			Method:          http.MethodGet,
			URL:             "/api/sessions?meetingId=meet-0",
			ExpectedStatus:  http.StatusOK,
			ExpectedContent: []string{"[]"},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:           "delete session",
			Method:         http.MethodDelete,
			URL:            "/api/sessions/" + sessionID,
			ExpectedStatus: http.StatusNoContent,
			TestAppFactory: newApp,
			BeforeTestFunc: mount(func(sm *services.SessionManager) {
				if _, err := sm.Open(sessionID); err != nil {
					panic(err)
				}
			}),
			AfterTestFunc: func(t testing.TB, app *tests.TestApp, res *http.Response) {
				if _, err := app.FindRecordById("recording_sessions", sessionID); err == nil {
					t.Fatal("session record still exists")
				}
			},
		},
		{
			Name:            "metrics",
			Method:          http.MethodGet,
			URL:             "/api/recview/metrics",
			ExpectedStatus:  http.StatusOK,
			ExpectedContent: []string{`"live_sessions":0`, `"health_status":"healthy"`},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
		{
			Name:            "health",
			Method:          http.MethodGet,
			URL:             "/api/recview/health",
			ExpectedStatus:  http.StatusOK,
			ExpectedContent: []string{`"status":"healthy"`},
			TestAppFactory:  newApp,
			BeforeTestFunc:  mount(nil),
		},
	}

	for _, scenario := range scenarios {
		// Record hooks fire on create and delete; only responses matter here
		scenario.ExpectedEvents = map[string]int{"*": 0}
		scenario.Test(t)
	}
}
