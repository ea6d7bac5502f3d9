package cycle

import (
	"context"
	"time"

	"github.com/reelclub/movie-club/internal/domain/season"
)

// Repository describes cycle persistence needs from use cases.
//
// Implementations own all transactional boundaries: every multi-row
// method either applies completely or not at all, and the unique
// indexes underneath are the final arbiter for the duplicate and
// at-most-once constraints (pre-checks in the services only provide
// friendlier errors).
type Repository interface {
	GetByID(ctx context.Context, cycleID string) (Cycle, bool, error)
	GetActiveByClub(ctx context.Context, clubID string) (Cycle, bool, error)
	CountByClub(ctx context.Context, clubID string) (int, error)

	// Create inserts the cycle and marks its theme used in the same
	// transaction. Returns ErrAlreadyActive when the club already has a
	// non-idle cycle and ErrNoThemesAvailable when the theme was
	// consumed by a concurrent start.
	Create(ctx context.Context, c Cycle) error

	// UpdatePhase moves the cycle from one phase to another with an
	// optimistic compare on the current phase; a zero-row update
	// surfaces as ErrStale.
	UpdatePhase(ctx context.Context, cycleID string, from, to Phase, completedAt *time.Time) error

	AddNomination(ctx context.Context, n Nomination) error
	ListNominations(ctx context.Context, cycleID string) ([]Nomination, error)

	// SeedWatchProgress inserts the given rows, skipping any that
	// already exist, so repeated entries into watching are no-ops.
	SeedWatchProgress(ctx context.Context, rows []WatchProgress) error
	ListWatchProgress(ctx context.Context, cycleID string) ([]WatchProgress, error)
	UpdateWatchProgress(ctx context.Context, row WatchProgress) error

	HasBallot(ctx context.Context, cycleID, userID string) (bool, error)
	// SaveBallot stores a member's guesses and rankings in one
	// transaction; a second submission surfaces as ErrAlreadySubmitted.
	SaveBallot(ctx context.Context, cycleID, userID string, b Ballot) error
	ListRankings(ctx context.Context, cycleID string) ([]Ranking, error)
	ListGuesses(ctx context.Context, cycleID string) ([]Guess, error)

	// SaveResults writes every result row, the winner fields, the
	// ranking->results phase change, and the season stat deltas in one
	// transaction. A failure anywhere leaves the cycle in ranking with
	// no result rows and no stats changes, so scoring can be retried.
	SaveResults(ctx context.Context, c Cycle, results []Result, stats []season.Delta) error
	ListResults(ctx context.Context, cycleID string) ([]Result, error)
	// ListCompletedByClub returns idle cycles ordered by cycle number.
	ListCompletedByClub(ctx context.Context, clubID string) ([]Cycle, error)
}
