package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("recording_sessions")
		collection.ListRule = nil
		collection.ViewRule = nil
		collection.CreateRule = nil
		collection.UpdateRule = nil
		collection.DeleteRule = nil

		collection.Fields.Add(&core.TextField{
			Name:     "name",
			Required: true,
			Max:      100,
		})

		// SDK meeting the session records
		collection.Fields.Add(&core.TextField{
			Name:     "meeting_id",
			Required: true,
			Max:      128,
		})

		collection.Fields.Add(&core.SelectField{
			Name:      "last_template",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{"one_on_one", "two_judges", "grid"},
		})

		// Participants placed by the last layout
		collection.Fields.Add(&core.NumberField{
			Name:    "participant_count",
			OnlyInt: true,
		})

		collection.Fields.Add(&core.DateField{
			Name:     "created_at",
			Required: true,
		})

		collection.Fields.Add(&core.DateField{
			Name:     "last_activity",
			Required: true,
		})

		collection.Indexes = []string{
			"CREATE INDEX idx_recording_sessions_meeting ON recording_sessions(meeting_id)",
			"CREATE INDEX idx_recording_sessions_activity ON recording_sessions(last_activity)",
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("recording_sessions")
		if err == nil && collection != nil {
			return app.Delete(collection)
		}
		return nil
	})
}
