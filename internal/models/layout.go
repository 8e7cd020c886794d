package models

// Template is one of the fixed screen arrangements a layout can use.
type Template string

const (
	TemplateOneOnOne  Template = "one_on_one"
	TemplateTwoJudges Template = "two_judges"
	TemplateGrid      Template = "grid"
)

// Slot is a named region of a template.
type Slot string

const (
	SlotLeftColumn  Slot = "left-column"
	SlotRightColumn Slot = "right-column"
	SlotCenter      Slot = "center"
	SlotTopJudge    Slot = "top-judge"
	SlotBottomJudge Slot = "bottom-judge"
)

// Tile is a participant placed into a slot.
type Tile struct {
	Participant Participant `json:"participant"`
	Active      bool        `json:"active"`
}

// SlotAssignment lists the tiles placed into one slot, in render order.
type SlotAssignment struct {
	Slot  Slot   `json:"slot"`
	Tiles []Tile `json:"tiles"`
}

// Assignment is the output of layout selection: a template, its slots in
// render order, and the slot the branding element is anchored to.
type Assignment struct {
	Template Template         `json:"template"`
	Slots    []SlotAssignment `json:"slots"`
	Branding Slot             `json:"branding"`
}

// Tiles returns the tiles assigned to slot, or nil if the template has no
// such slot.
func (a Assignment) Tiles(slot Slot) []Tile {
	for _, s := range a.Slots {
		if s.Slot == slot {
			return s.Tiles
		}
	}
	return nil
}

// ParticipantIDs returns the IDs placed into slot, in order.
func (a Assignment) ParticipantIDs(slot Slot) []string {
	tiles := a.Tiles(slot)
	ids := make([]string, 0, len(tiles))
	for _, t := range tiles {
		ids = append(ids, t.Participant.ID)
	}
	return ids
}

// Placed returns the number of tiles across all slots.
func (a Assignment) Placed() int {
	n := 0
	for _, s := range a.Slots {
		n += len(s.Tiles)
	}
	return n
}

// ActiveTiles returns every tile flagged as the active speaker.
func (a Assignment) ActiveTiles() []Tile {
	var active []Tile
	for _, s := range a.Slots {
		for _, t := range s.Tiles {
			if t.Active {
				active = append(active, t)
			}
		}
	}
	return active
}
