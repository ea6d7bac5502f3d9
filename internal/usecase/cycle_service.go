package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/reelclub/movie-club/internal/domain/club"
	"github.com/reelclub/movie-club/internal/domain/cycle"
	"github.com/reelclub/movie-club/internal/domain/theme"
	idgen "github.com/reelclub/movie-club/internal/platform/id"
	"github.com/reelclub/movie-club/internal/platform/logging"
)

// AdvanceDirection selects which way a director steps the cycle.
type AdvanceDirection string

const (
	AdvanceNext     AdvanceDirection = "next"
	AdvancePrevious AdvanceDirection = "previous"
)

func ParseAdvanceDirection(v string) (AdvanceDirection, error) {
	switch AdvanceDirection(strings.ToLower(strings.TrimSpace(v))) {
	case AdvanceNext:
		return AdvanceNext, nil
	case AdvancePrevious:
		return AdvancePrevious, nil
	default:
		return "", fmt.Errorf("%w: direction must be next or previous", ErrInvalidInput)
	}
}

// CycleService is the cycle lifecycle state machine. It gates phase
// transitions against store contents and triggers the scoring engine
// at the ranking->results boundary.
type CycleService struct {
	clubRepo  club.Repository
	themeRepo theme.Repository
	cycleRepo cycle.Repository
	idGen     idgen.Generator
	logger    *logging.Logger
	now       func() time.Time
	// pickTheme selects an index in [0, n); injectable so tests can
	// make the uniform draw deterministic.
	pickTheme func(n int) int
}

func NewCycleService(
	clubRepo club.Repository,
	themeRepo theme.Repository,
	cycleRepo cycle.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *CycleService {
	if logger == nil {
		logger = logging.Default()
	}

	return &CycleService{
		clubRepo:  clubRepo,
		themeRepo: themeRepo,
		cycleRepo: cycleRepo,
		idGen:     idGen,
		logger:    logger,
		now:       time.Now,
		pickTheme: rand.Intn,
	}
}

// Start opens a new cycle for the club: draws one unused theme at
// random, marks it used, and creates the cycle in the nomination phase
// with the next monotonic cycle number.
func (s *CycleService) Start(ctx context.Context, clubID, actorID string) (cycle.Cycle, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CycleService.Start")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return cycle.Cycle{}, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}

	if err := s.requireDirector(ctx, clubID, actorID); err != nil {
		return cycle.Cycle{}, err
	}

	if _, active, err := s.cycleRepo.GetActiveByClub(ctx, clubID); err != nil {
		return cycle.Cycle{}, fmt.Errorf("get active cycle: %w", err)
	} else if active {
		return cycle.Cycle{}, fmt.Errorf("%w: club=%s", cycle.ErrAlreadyActive, clubID)
	}

	themes, err := s.themeRepo.ListUnusedByClub(ctx, clubID)
	if err != nil {
		return cycle.Cycle{}, fmt.Errorf("list unused themes: %w", err)
	}
	if len(themes) == 0 {
		return cycle.Cycle{}, fmt.Errorf("%w: club=%s", cycle.ErrNoThemesAvailable, clubID)
	}
	drawn := themes[s.pickTheme(len(themes))]

	priorCount, err := s.cycleRepo.CountByClub(ctx, clubID)
	if err != nil {
		return cycle.Cycle{}, fmt.Errorf("count prior cycles: %w", err)
	}

	cycleID, err := s.idGen.NewID()
	if err != nil {
		return cycle.Cycle{}, fmt.Errorf("generate cycle id: %w", err)
	}

	now := s.now().UTC()
	next := cycle.Cycle{
		ID:         cycleID,
		ClubID:     clubID,
		ThemeID:    drawn.ID,
		ThemeText:  drawn.Text,
		Phase:      cycle.PhaseNomination,
		Number:     priorCount + 1,
		SeasonYear: now.Year(),
		StartedAt:  now,
	}
	if err := next.Validate(); err != nil {
		return cycle.Cycle{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Create marks the theme used in the same transaction; the store's
	// constraints settle any race with a concurrent Start.
	if err := s.cycleRepo.Create(ctx, next); err != nil {
		return cycle.Cycle{}, fmt.Errorf("create cycle: %w", err)
	}

	s.logger.InfoContext(ctx, "cycle started",
		"club_id", clubID,
		"cycle_id", next.ID,
		"cycle_number", next.Number,
		"theme", next.ThemeText,
	)

	return next, nil
}

// Advance steps the cycle one phase forward or backward. Previous is
// always permitted and clamps at nomination; next is gated by the
// current phase's exit precondition. Stepping past either end is a
// successful no-op reporting the clamped phase.
func (s *CycleService) Advance(ctx context.Context, cycleID, actorID string, direction AdvanceDirection) (cycle.Cycle, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CycleService.Advance")
	defer span.End()

	current, err := s.getCycle(ctx, cycleID)
	if err != nil {
		return cycle.Cycle{}, err
	}
	if err := s.requireDirector(ctx, current.ClubID, actorID); err != nil {
		return cycle.Cycle{}, err
	}

	switch direction {
	case AdvancePrevious:
		return s.stepBack(ctx, current)
	case AdvanceNext:
		return s.stepForward(ctx, current)
	default:
		return cycle.Cycle{}, fmt.Errorf("%w: direction must be next or previous", ErrInvalidInput)
	}
}

func (s *CycleService) stepBack(ctx context.Context, current cycle.Cycle) (cycle.Cycle, error) {
	if current.Phase.Terminal() {
		// Completed cycles are immutable.
		return cycle.Cycle{}, fmt.Errorf("%w: cycle=%s", cycle.ErrCycleCompleted, current.ID)
	}

	target := current.Phase.Previous()
	if target == current.Phase {
		// Already at the floor; report success with the clamped phase.
		return current, nil
	}

	if err := s.cycleRepo.UpdatePhase(ctx, current.ID, current.Phase, target, nil); err != nil {
		return cycle.Cycle{}, s.mapPhaseErr(err, current)
	}
	current.Phase = target

	return current, nil
}

func (s *CycleService) stepForward(ctx context.Context, current cycle.Cycle) (cycle.Cycle, error) {
	switch current.Phase {
	case cycle.PhaseIdle:
		// Past the end; clamped no-op.
		return current, nil

	case cycle.PhaseNomination:
		if err := s.requireFullNominations(ctx, current); err != nil {
			return cycle.Cycle{}, err
		}
		if err := s.cycleRepo.UpdatePhase(ctx, current.ID, cycle.PhaseNomination, cycle.PhaseWatching, nil); err != nil {
			return cycle.Cycle{}, s.mapPhaseErr(err, current)
		}
		current.Phase = cycle.PhaseWatching
		if err := s.seedWatchProgress(ctx, current); err != nil {
			return cycle.Cycle{}, err
		}
		return current, nil

	case cycle.PhaseWatching:
		// No completeness requirement for leaving watching.
		if err := s.cycleRepo.UpdatePhase(ctx, current.ID, cycle.PhaseWatching, cycle.PhaseRanking, nil); err != nil {
			return cycle.Cycle{}, s.mapPhaseErr(err, current)
		}
		current.Phase = cycle.PhaseRanking
		return current, nil

	case cycle.PhaseRanking:
		return s.closeRanking(ctx, current)

	case cycle.PhaseResults:
		now := s.now().UTC()
		if err := s.cycleRepo.UpdatePhase(ctx, current.ID, cycle.PhaseResults, cycle.PhaseIdle, &now); err != nil {
			return cycle.Cycle{}, s.mapPhaseErr(err, current)
		}
		current.Phase = cycle.PhaseIdle
		current.CompletedAt = &now
		s.logger.InfoContext(ctx, "cycle completed",
			"club_id", current.ClubID,
			"cycle_id", current.ID,
			"cycle_number", current.Number,
		)
		return current, nil

	default:
		return cycle.Cycle{}, fmt.Errorf("%w: cycle %s has invalid phase %q", ErrConflict, current.ID, current.Phase)
	}
}

func (s *CycleService) requireFullNominations(ctx context.Context, current cycle.Cycle) error {
	members, err := s.clubRepo.ListActiveMembers(ctx, current.ClubID)
	if err != nil {
		return fmt.Errorf("list active members: %w", err)
	}
	nominations, err := s.cycleRepo.ListNominations(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("list nominations: %w", err)
	}
	// Exact match: a roster change after nominations came in leaves the
	// counts diverged either way, and the seeding math downstream
	// assumes one nomination per active member.
	if len(nominations) != len(members) {
		return fmt.Errorf("%w: %d nominations for %d active members",
			cycle.ErrIncompleteNominations, len(nominations), len(members))
	}

	return nil
}

// seedWatchProgress is the watching-phase entry hook: one row per
// (active member, nomination) pair, with the member's own nomination
// pre-marked watched. The repository skips rows that already exist, so
// re-entering the phase is safe.
func (s *CycleService) seedWatchProgress(ctx context.Context, current cycle.Cycle) error {
	members, err := s.clubRepo.ListActiveMembers(ctx, current.ClubID)
	if err != nil {
		return fmt.Errorf("list active members for watch seed: %w", err)
	}
	nominations, err := s.cycleRepo.ListNominations(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("list nominations for watch seed: %w", err)
	}

	now := s.now().UTC()
	rows := make([]cycle.WatchProgress, 0, len(members)*len(nominations))
	for _, member := range members {
		for _, n := range nominations {
			row := cycle.WatchProgress{
				CycleID:      current.ID,
				UserID:       member.UserID,
				NominationID: n.ID,
			}
			if n.UserID == member.UserID {
				row.Watched = true
				row.WatchedAt = &now
			}
			rows = append(rows, row)
		}
	}

	if err := s.cycleRepo.SeedWatchProgress(ctx, rows); err != nil {
		return fmt.Errorf("seed watch progress: %w", err)
	}

	return nil
}

// closeRanking runs the scoring engine and persists its output
// atomically with the ranking->results transition; a scoring failure
// leaves the cycle in ranking.
func (s *CycleService) closeRanking(ctx context.Context, current cycle.Cycle) (cycle.Cycle, error) {
	nominations, err := s.cycleRepo.ListNominations(ctx, current.ID)
	if err != nil {
		return cycle.Cycle{}, fmt.Errorf("list nominations for scoring: %w", err)
	}
	rankings, err := s.cycleRepo.ListRankings(ctx, current.ID)
	if err != nil {
		return cycle.Cycle{}, fmt.Errorf("list rankings for scoring: %w", err)
	}
	guesses, err := s.cycleRepo.ListGuesses(ctx, current.ID)
	if err != nil {
		return cycle.Cycle{}, fmt.Errorf("list guesses for scoring: %w", err)
	}
	members, err := s.clubRepo.ListActiveMembers(ctx, current.ClubID)
	if err != nil {
		return cycle.Cycle{}, fmt.Errorf("list active members for scoring: %w", err)
	}

	results := computeCycleResults(current, nominations, rankings, guesses, len(members))
	scored := current
	scored.Phase = cycle.PhaseResults
	if len(results) > 0 {
		scored.WinnerUserID = results[0].UserID
		scored.WinnerNominationID = results[0].NominationID
		scored.WinnerPoints = results[0].PointsEarned
	}

	deltas := seasonDeltas(scored, results, s.now().UTC())
	if err := s.cycleRepo.SaveResults(ctx, scored, results, deltas); err != nil {
		return cycle.Cycle{}, s.mapPhaseErr(fmt.Errorf("save cycle results: %w", err), current)
	}

	s.logger.InfoContext(ctx, "cycle scored",
		"club_id", scored.ClubID,
		"cycle_id", scored.ID,
		"scored_nominations", len(results),
		"winner_user_id", scored.WinnerUserID,
	)

	return scored, nil
}

// CycleDetail is the assembled read model for the active cycle screen.
type CycleDetail struct {
	Cycle           cycle.Cycle
	Nominations     []cycle.Nomination
	WatchProgress   []cycle.WatchProgress
	BallotSubmitted bool
}

// GetCurrent projects the club's active cycle with its nominations,
// watch progress, and the caller's ballot status.
func (s *CycleService) GetCurrent(ctx context.Context, clubID, userID string) (CycleDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CycleService.GetCurrent")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return CycleDetail{}, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}

	current, active, err := s.cycleRepo.GetActiveByClub(ctx, clubID)
	if err != nil {
		return CycleDetail{}, fmt.Errorf("get active cycle: %w", err)
	}
	if !active {
		return CycleDetail{}, fmt.Errorf("%w: no active cycle in club=%s", ErrNotFound, clubID)
	}

	detail := CycleDetail{Cycle: current}
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		nominations, err := s.cycleRepo.ListNominations(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("list nominations: %w", err)
		}
		detail.Nominations = nominations
		return nil
	})
	p.Go(func(ctx context.Context) error {
		progress, err := s.cycleRepo.ListWatchProgress(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("list watch progress: %w", err)
		}
		detail.WatchProgress = progress
		return nil
	})
	if userID != "" {
		p.Go(func(ctx context.Context) error {
			submitted, err := s.cycleRepo.HasBallot(ctx, current.ID, userID)
			if err != nil {
				return fmt.Errorf("check ballot status: %w", err)
			}
			detail.BallotSubmitted = submitted
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return CycleDetail{}, err
	}

	return detail, nil
}

// CycleResults is the assembled read model for a scored cycle.
type CycleResults struct {
	Cycle       cycle.Cycle
	Nominations []cycle.Nomination
	Results     []cycle.Result
}

// GetResults projects stored result rows; it never recomputes.
func (s *CycleService) GetResults(ctx context.Context, cycleID string) (CycleResults, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CycleService.GetResults")
	defer span.End()

	current, err := s.getCycle(ctx, cycleID)
	if err != nil {
		return CycleResults{}, err
	}
	if current.Phase.Before(cycle.PhaseResults) {
		return CycleResults{}, fmt.Errorf("%w: results not computed yet", cycle.ErrWrongPhase)
	}

	out := CycleResults{Cycle: current}
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		results, err := s.cycleRepo.ListResults(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}
		out.Results = results
		return nil
	})
	p.Go(func(ctx context.Context) error {
		nominations, err := s.cycleRepo.ListNominations(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("list nominations: %w", err)
		}
		out.Nominations = nominations
		return nil
	})
	if err := p.Wait(); err != nil {
		return CycleResults{}, err
	}

	return out, nil
}

func (s *CycleService) getCycle(ctx context.Context, cycleID string) (cycle.Cycle, error) {
	cycleID = strings.TrimSpace(cycleID)
	if cycleID == "" {
		return cycle.Cycle{}, fmt.Errorf("%w: cycle id is required", ErrInvalidInput)
	}

	current, exists, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return cycle.Cycle{}, fmt.Errorf("get cycle: %w", err)
	}
	if !exists {
		return cycle.Cycle{}, fmt.Errorf("%w: cycle=%s", ErrNotFound, cycleID)
	}

	return current, nil
}

func (s *CycleService) requireDirector(ctx context.Context, clubID, actorID string) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}

	if _, exists, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		return fmt.Errorf("get club: %w", err)
	} else if !exists {
		return fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
	}

	member, exists, err := s.clubRepo.GetMember(ctx, clubID, actorID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	if !exists || !member.CanDirect() {
		return fmt.Errorf("%w: user=%s is not a director of club=%s", ErrUnauthorized, actorID, clubID)
	}

	return nil
}

func (s *CycleService) mapPhaseErr(err error, current cycle.Cycle) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("advance cycle=%s from=%s: %w", current.ID, current.Phase, err)
}
