package cycle

import (
	"fmt"
	"time"
)

// Cycle is one full round of theme, nominations, watching, ranking and
// results for a club. At most one cycle per club is in a non-idle phase
// at any time; the row is immutable once the phase reaches idle.
type Cycle struct {
	ID                 string
	ClubID             string
	ThemeID            string
	ThemeText          string
	Phase              Phase
	Number             int
	SeasonYear         int
	StartedAt          time.Time
	CompletedAt        *time.Time
	WinnerUserID       string
	WinnerNominationID string
	WinnerPoints       int
}

func (c Cycle) Active() bool {
	return !c.Phase.Terminal()
}

func (c Cycle) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("cycle id is required")
	}
	if c.ClubID == "" {
		return fmt.Errorf("cycle club id is required")
	}
	if !c.Phase.Valid() {
		return fmt.Errorf("cycle phase %q is invalid", c.Phase)
	}
	if c.Number < 1 {
		return fmt.Errorf("cycle number must be >= 1")
	}
	if c.SeasonYear < 1 {
		return fmt.Errorf("cycle season year is required")
	}

	return nil
}

// Nomination is a member's single movie submission for a cycle. A user
// holds at most one nomination per cycle, and a movie appears at most
// once per cycle.
type Nomination struct {
	ID          string
	CycleID     string
	UserID      string
	MovieID     int64
	MovieTitle  string
	PosterPath  string
	ReleaseYear int
	SubmittedAt time.Time
}

// WatchProgress tracks whether a member has watched one nomination.
// Rows are seeded on entry into the watching phase, with the member's
// own nomination pre-marked watched.
type WatchProgress struct {
	CycleID      string
	UserID       string
	NominationID string
	Watched      bool
	WatchedAt    *time.Time
	Rating       *int
	Notes        string
}

// Guess is a member's attempt to identify who nominated a movie.
// Correctness is fixed at write time against the true nominator.
type Guess struct {
	CycleID            string
	GuesserID          string
	NominationID       string
	GuessedNominatorID string
	IsCorrect          bool
}

// Ranking is one position in a member's blind ordering of the
// nominations they are allowed to rank (everything but their own).
type Ranking struct {
	CycleID      string
	RankerID     string
	NominationID string
	Position     int
}

// Ballot is a member's complete ranking-phase submission. It is
// accepted at most once per cycle, all-or-nothing.
type Ballot struct {
	Guesses  []Guess
	Rankings []Ranking
}

// Result is the scoring engine's output for one member's nomination.
// Rows are immutable once written.
type Result struct {
	CycleID       string
	UserID        string
	NominationID  string
	AverageRank   float64
	FinalRank     int
	PointsEarned  int
	GuessAccuracy float64
	VotesReceived int
}
