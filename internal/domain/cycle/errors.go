package cycle

import "errors"

var (
	ErrAlreadyActive           = errors.New("club already has an active cycle")
	ErrNoThemesAvailable       = errors.New("no unused themes available")
	ErrIncompleteNominations   = errors.New("not every active member has nominated")
	ErrWrongPhase              = errors.New("operation not allowed in current phase")
	ErrCycleCompleted          = errors.New("cycle is already completed")
	ErrDuplicateNomination     = errors.New("user already nominated in this cycle")
	ErrMovieAlreadyTaken       = errors.New("movie already nominated in this cycle")
	ErrAlreadySubmitted        = errors.New("rankings already submitted for this cycle")
	ErrUnknownNomination       = errors.New("nomination does not belong to this cycle")
	ErrCannotRankOwnNomination = errors.New("cannot rank own nomination")
	ErrDuplicateRankPosition   = errors.New("duplicate rank position in submission")
	// ErrStale means a compare-and-swap on the cycle row lost a race;
	// the whole operation is safe to retry once.
	ErrStale = errors.New("cycle was modified concurrently")
)
