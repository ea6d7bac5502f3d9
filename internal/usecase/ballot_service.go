package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/reelclub/movie-club/internal/domain/club"
	"github.com/reelclub/movie-club/internal/domain/cycle"
	"github.com/reelclub/movie-club/internal/platform/logging"
)

// GuessInput is one who-nominated-what guess in a ballot submission.
type GuessInput struct {
	NominationID       string
	GuessedNominatorID string
}

// RankingInput is one position assignment in a ballot submission.
type RankingInput struct {
	NominationID string
	Position     int
}

// BallotService validates and records the one-shot ranking-phase
// submission: a member's guesses plus their blind ranking.
type BallotService struct {
	clubRepo  club.Repository
	cycleRepo cycle.Repository
	logger    *logging.Logger
}

func NewBallotService(clubRepo club.Repository, cycleRepo cycle.Repository, logger *logging.Logger) *BallotService {
	if logger == nil {
		logger = logging.Default()
	}

	return &BallotService{
		clubRepo:  clubRepo,
		cycleRepo: cycleRepo,
		logger:    logger,
	}
}

// Submit records a member's guesses and rankings, all-or-nothing. A
// member submits at most once per cycle; later calls are rejected, not
// merged. Guesses against the member's own nomination are dropped
// silently, rankings against it are a hard error.
func (s *BallotService) Submit(ctx context.Context, cycleID, userID string, guesses []GuessInput, rankings []RankingInput) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.BallotService.Submit")
	defer span.End()

	cycleID = strings.TrimSpace(cycleID)
	userID = strings.TrimSpace(userID)
	if cycleID == "" || userID == "" {
		return fmt.Errorf("%w: cycle id and user id are required", ErrInvalidInput)
	}
	if len(rankings) == 0 {
		return fmt.Errorf("%w: rankings are required", ErrInvalidInput)
	}

	current, exists, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("get cycle: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: cycle=%s", ErrNotFound, cycleID)
	}
	if current.Phase != cycle.PhaseRanking {
		return fmt.Errorf("%w: ballots are only accepted in ranking, not %s", cycle.ErrWrongPhase, current.Phase)
	}

	member, isMember, err := s.clubRepo.GetMember(ctx, current.ClubID, userID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	if !isMember || !member.IsActive {
		return fmt.Errorf("%w: user=%s is not an active member of club=%s", ErrUnauthorized, userID, current.ClubID)
	}

	submitted, err := s.cycleRepo.HasBallot(ctx, cycleID, userID)
	if err != nil {
		return fmt.Errorf("check ballot status: %w", err)
	}
	if submitted {
		return fmt.Errorf("%w: user=%s", cycle.ErrAlreadySubmitted, userID)
	}

	nominations, err := s.cycleRepo.ListNominations(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("list nominations: %w", err)
	}
	ownerByNomination := make(map[string]string, len(nominations))
	for _, n := range nominations {
		ownerByNomination[n.ID] = n.UserID
	}

	ballot, err := buildBallot(cycleID, userID, guesses, rankings, ownerByNomination)
	if err != nil {
		return err
	}

	if err := s.cycleRepo.SaveBallot(ctx, cycleID, userID, ballot); err != nil {
		return fmt.Errorf("save ballot: %w", err)
	}

	s.logger.InfoContext(ctx, "ballot recorded",
		"cycle_id", cycleID,
		"user_id", userID,
		"guesses", len(ballot.Guesses),
		"rankings", len(ballot.Rankings),
	)

	return nil
}

// buildBallot validates the submission in the documented order and
// fixes guess correctness against the true nominators at write time.
func buildBallot(
	cycleID, userID string,
	guesses []GuessInput,
	rankings []RankingInput,
	ownerByNomination map[string]string,
) (cycle.Ballot, error) {
	for _, g := range guesses {
		if _, known := ownerByNomination[g.NominationID]; !known {
			return cycle.Ballot{}, fmt.Errorf("%w: guess references nomination=%s", cycle.ErrUnknownNomination, g.NominationID)
		}
	}
	for _, r := range rankings {
		if _, known := ownerByNomination[r.NominationID]; !known {
			return cycle.Ballot{}, fmt.Errorf("%w: ranking references nomination=%s", cycle.ErrUnknownNomination, r.NominationID)
		}
	}

	storedGuesses := make([]cycle.Guess, 0, len(guesses))
	for _, g := range guesses {
		owner := ownerByNomination[g.NominationID]
		if owner == userID {
			// A guess on your own nomination carries no information.
			continue
		}
		storedGuesses = append(storedGuesses, cycle.Guess{
			CycleID:            cycleID,
			GuesserID:          userID,
			NominationID:       g.NominationID,
			GuessedNominatorID: g.GuessedNominatorID,
			IsCorrect:          g.GuessedNominatorID == owner,
		})
	}

	rankable := 0
	for _, owner := range ownerByNomination {
		if owner != userID {
			rankable++
		}
	}

	seenPositions := make(map[int]struct{}, len(rankings))
	seenNominations := make(map[string]struct{}, len(rankings))
	storedRankings := make([]cycle.Ranking, 0, len(rankings))
	for _, r := range rankings {
		if ownerByNomination[r.NominationID] == userID {
			return cycle.Ballot{}, fmt.Errorf("%w: nomination=%s", cycle.ErrCannotRankOwnNomination, r.NominationID)
		}
		if r.Position < 1 || r.Position > rankable {
			return cycle.Ballot{}, fmt.Errorf("%w: position %d is outside 1..%d", ErrInvalidInput, r.Position, rankable)
		}
		if _, dup := seenPositions[r.Position]; dup {
			return cycle.Ballot{}, fmt.Errorf("%w: position %d", cycle.ErrDuplicateRankPosition, r.Position)
		}
		if _, dup := seenNominations[r.NominationID]; dup {
			return cycle.Ballot{}, fmt.Errorf("%w: nomination=%s ranked twice", ErrInvalidInput, r.NominationID)
		}
		seenPositions[r.Position] = struct{}{}
		seenNominations[r.NominationID] = struct{}{}
		storedRankings = append(storedRankings, cycle.Ranking{
			CycleID:      cycleID,
			RankerID:     userID,
			NominationID: r.NominationID,
			Position:     r.Position,
		})
	}

	// Distinct positions in 1..rankable over distinct nominations: a
	// matching count means the ranking is a full permutation, never a
	// partial one that would skew the averages.
	if len(storedRankings) != rankable {
		return cycle.Ballot{}, fmt.Errorf("%w: ranked %d of %d nominations", ErrInvalidInput, len(storedRankings), rankable)
	}

	return cycle.Ballot{Guesses: storedGuesses, Rankings: storedRankings}, nil
}
