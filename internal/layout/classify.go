package layout

import "github.com/damione1/recording-view/internal/models"

// Buckets partitions a roster by role. Order within each bucket is roster
// order. Participants without a recognized role land in Discarded and are
// never rendered.
type Buckets struct {
	Negative    []models.Participant
	Affirmative []models.Participant
	Judge       []models.Participant
	Solo        []models.Participant
	Discarded   []models.Participant
}

// Classify splits participants into role buckets.
func Classify(participants []models.Participant) Buckets {
	var b Buckets
	for _, p := range participants {
		switch p.Role {
		case models.RoleNegative:
			b.Negative = append(b.Negative, p)
		case models.RoleAffirmative:
			b.Affirmative = append(b.Affirmative, p)
		case models.RoleJudge:
			b.Judge = append(b.Judge, p)
		case models.RoleSolo:
			b.Solo = append(b.Solo, p)
		default:
			b.Discarded = append(b.Discarded, p)
		}
	}
	return b
}

// Len returns the number of participants across the rendered buckets.
func (b Buckets) Len() int {
	return len(b.Negative) + len(b.Affirmative) + len(b.Judge) + len(b.Solo)
}

// MergeColumns builds the two side columns: negatives then even-index solos
// on the left, affirmatives then odd-index solos on the right.
func MergeColumns(b Buckets) (left, right []models.Participant) {
	left = make([]models.Participant, 0, len(b.Negative)+(len(b.Solo)+1)/2)
	right = make([]models.Participant, 0, len(b.Affirmative)+len(b.Solo)/2)

	left = append(left, b.Negative...)
	right = append(right, b.Affirmative...)

	for i, p := range b.Solo {
		if i%2 == 0 {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	return left, right
}
