// Package layout maps a roster and the active speaker to a recording layout.
//
// Everything here is pure: Select keeps no state between calls and the same
// inputs always produce the same Assignment.
package layout

import "github.com/damione1/recording-view/internal/models"

// Select picks a template for the roster and assigns participants to its
// slots. The first matching template wins:
//
//   - one-on-one: exactly one negative, one affirmative and one judge, no solos
//   - two judges: exactly two judges
//   - grid: anything else, including the empty roster
func Select(participants []models.Participant, activeSpeaker string) models.Assignment {
	b := Classify(participants)

	switch ChooseTemplate(b) {
	case models.TemplateOneOnOne:
		return models.Assignment{
			Template: models.TemplateOneOnOne,
			Slots: []models.SlotAssignment{
				slot(models.SlotLeftColumn, b.Negative, activeSpeaker),
				slot(models.SlotRightColumn, b.Affirmative, activeSpeaker),
				slot(models.SlotCenter, b.Judge, activeSpeaker),
			},
			Branding: models.SlotCenter,
		}

	case models.TemplateTwoJudges:
		left, right := MergeColumns(b)
		return models.Assignment{
			Template: models.TemplateTwoJudges,
			Slots: []models.SlotAssignment{
				slot(models.SlotTopJudge, b.Judge[:1], activeSpeaker),
				slot(models.SlotLeftColumn, left, activeSpeaker),
				slot(models.SlotCenter, nil, activeSpeaker),
				slot(models.SlotRightColumn, right, activeSpeaker),
				slot(models.SlotBottomJudge, b.Judge[1:], activeSpeaker),
			},
			Branding: models.SlotCenter,
		}

	default:
		left, right := MergeColumns(b)
		return models.Assignment{
			Template: models.TemplateGrid,
			Slots: []models.SlotAssignment{
				slot(models.SlotLeftColumn, left, activeSpeaker),
				slot(models.SlotCenter, b.Judge, activeSpeaker),
				slot(models.SlotRightColumn, right, activeSpeaker),
			},
			Branding: models.SlotCenter,
		}
	}
}

// ChooseTemplate applies the template priority to classified buckets.
func ChooseTemplate(b Buckets) models.Template {
	switch {
	case len(b.Negative) == 1 && len(b.Affirmative) == 1 && len(b.Judge) == 1 && len(b.Solo) == 0:
		return models.TemplateOneOnOne
	case len(b.Judge) == 2:
		return models.TemplateTwoJudges
	default:
		return models.TemplateGrid
	}
}

func slot(name models.Slot, participants []models.Participant, activeSpeaker string) models.SlotAssignment {
	tiles := make([]models.Tile, 0, len(participants))
	for _, p := range participants {
		tiles = append(tiles, models.Tile{
			Participant: p,
			Active:      activeSpeaker != "" && p.ID == activeSpeaker,
		})
	}
	return models.SlotAssignment{Slot: name, Tiles: tiles}
}
