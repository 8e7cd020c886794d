package testutil

import (
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"

	_ "github.com/damione1/recording-view/pb_migrations"
)

// NewTestApp creates a PocketBase test app in a temporary data directory
// with the project migrations applied. The caller owns cleanup.
func NewTestApp(t testing.TB) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test app: %v", err)
	}
	return app
}

// CreateSessionRecord inserts a recording session with a fixed ID
func CreateSessionRecord(t testing.TB, app core.App, id, name, meetingID string) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("recording_sessions")
	if err != nil {
		t.Fatalf("Failed to find sessions collection: %v", err)
	}

	now := time.Now()
	record := core.NewRecord(collection)
	record.Set("id", id)
	record.Set("name", name)
	record.Set("meeting_id", meetingID)
	record.Set("last_template", "grid")
	record.Set("participant_count", 0)
	record.Set("created_at", now)
	record.Set("last_activity", now)

	if err := app.Save(record); err != nil {
		t.Fatalf("Failed to create session record: %v", err)
	}
	return record
}
