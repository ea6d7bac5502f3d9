package season

import "time"

// Stats is one member's running totals for a (club, season year)
// bucket. A year rollover starts a fresh row; old rows are never
// mutated again.
type Stats struct {
	ClubID             string
	UserID             string
	Year               int
	CyclesParticipated int
	CyclesWon          int
	TotalPoints        int
	AveragePoints      float64
	UpdatedAt          time.Time
}

// Standing is a Stats row with its dense-rank position inside the club.
type Standing struct {
	Stats
	Position int
}

// Apply folds one cycle result into the running totals. The average is
// always re-derived from the totals, never incrementally trusted.
func (s *Stats) Apply(pointsEarned int, won bool) {
	s.CyclesParticipated++
	if won {
		s.CyclesWon++
	}
	s.TotalPoints += pointsEarned
	s.AveragePoints = float64(s.TotalPoints) / float64(s.CyclesParticipated)
}

// Delta is the increment one scored cycle contributes to a member's
// (club, year) bucket. Deltas are written in the same transaction as
// the cycle results so the fold happens exactly once per cycle.
type Delta struct {
	ClubID    string
	UserID    string
	Year      int
	Points    int
	Won       bool
	AppliedAt time.Time
}
