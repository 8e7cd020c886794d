package roster

import "github.com/damione1/recording-view/internal/models"

// Roster is an insertion-ordered participant list, unique by ID. It is a
// value: every operation returns a new Roster and leaves the receiver alone.
type Roster struct {
	participants []models.Participant
}

// New builds a roster from a snapshot. Later duplicates of an ID are dropped
// so the first occurrence keeps its position.
func New(snapshot []models.Participant) Roster {
	r := Roster{participants: make([]models.Participant, 0, len(snapshot))}
	for _, p := range snapshot {
		if r.indexOf(p.ID) >= 0 {
			continue
		}
		r.participants = append(r.participants, p)
	}
	return r
}

// Join appends p unless a participant with the same ID is present.
func (r Roster) Join(p models.Participant) Roster {
	if r.indexOf(p.ID) >= 0 {
		return r
	}
	next := make([]models.Participant, len(r.participants), len(r.participants)+1)
	copy(next, r.participants)
	return Roster{participants: append(next, p)}
}

// Leave removes the participant with id, if any.
func (r Roster) Leave(id string) Roster {
	i := r.indexOf(id)
	if i < 0 {
		return r
	}
	next := make([]models.Participant, 0, len(r.participants)-1)
	next = append(next, r.participants[:i]...)
	next = append(next, r.participants[i+1:]...)
	return Roster{participants: next}
}

// SetVideoReady updates the liveness flag of a present participant.
func (r Roster) SetVideoReady(id string, ready bool) Roster {
	i := r.indexOf(id)
	if i < 0 || r.participants[i].VideoReady == ready {
		return r
	}
	next := r.Participants()
	next[i].VideoReady = ready
	return Roster{participants: next}
}

// Participants returns a copy of the participants in roster order.
func (r Roster) Participants() []models.Participant {
	out := make([]models.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

func (r Roster) Len() int {
	return len(r.participants)
}

func (r Roster) Contains(id string) bool {
	return r.indexOf(id) >= 0
}

// Equal reports whether both rosters hold the same participants in the same
// order.
func (r Roster) Equal(other Roster) bool {
	if len(r.participants) != len(other.participants) {
		return false
	}
	for i := range r.participants {
		if r.participants[i] != other.participants[i] {
			return false
		}
	}
	return true
}

func (r Roster) indexOf(id string) int {
	for i, p := range r.participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}
