package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reelclub/movie-club/internal/domain/club"
	"github.com/reelclub/movie-club/internal/domain/cycle"
	idgen "github.com/reelclub/movie-club/internal/platform/id"
	"github.com/reelclub/movie-club/internal/platform/logging"
)

// NominationService validates and records member movie submissions
// during the nomination phase.
type NominationService struct {
	clubRepo  club.Repository
	cycleRepo cycle.Repository
	movies    MovieMetadataLookup
	idGen     idgen.Generator
	logger    *logging.Logger
	now       func() time.Time
}

func NewNominationService(
	clubRepo club.Repository,
	cycleRepo cycle.Repository,
	movies MovieMetadataLookup,
	idGen idgen.Generator,
	logger *logging.Logger,
) *NominationService {
	if logger == nil {
		logger = logging.Default()
	}

	return &NominationService{
		clubRepo:  clubRepo,
		cycleRepo: cycleRepo,
		movies:    movies,
		idGen:     idGen,
		logger:    logger,
		now:       time.Now,
	}
}

// Nominate records one member's single movie submission. The store's
// unique indexes settle duplicate races; the pre-checks here exist to
// return errors that name the conflicting nominator.
func (s *NominationService) Nominate(ctx context.Context, cycleID, userID string, movieID int64) (cycle.Nomination, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.NominationService.Nominate")
	defer span.End()

	cycleID = strings.TrimSpace(cycleID)
	userID = strings.TrimSpace(userID)
	if cycleID == "" || userID == "" {
		return cycle.Nomination{}, fmt.Errorf("%w: cycle id and user id are required", ErrInvalidInput)
	}
	if movieID <= 0 {
		return cycle.Nomination{}, fmt.Errorf("%w: movie id must be greater than zero", ErrInvalidInput)
	}

	current, exists, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return cycle.Nomination{}, fmt.Errorf("get cycle: %w", err)
	}
	if !exists {
		return cycle.Nomination{}, fmt.Errorf("%w: cycle=%s", ErrNotFound, cycleID)
	}
	if current.Phase != cycle.PhaseNomination {
		return cycle.Nomination{}, fmt.Errorf("%w: nominations are closed in phase %s", cycle.ErrWrongPhase, current.Phase)
	}

	member, isMember, err := s.clubRepo.GetMember(ctx, current.ClubID, userID)
	if err != nil {
		return cycle.Nomination{}, fmt.Errorf("get member: %w", err)
	}
	if !isMember || !member.IsActive {
		return cycle.Nomination{}, fmt.Errorf("%w: user=%s is not an active member of club=%s", ErrUnauthorized, userID, current.ClubID)
	}

	existing, err := s.cycleRepo.ListNominations(ctx, cycleID)
	if err != nil {
		return cycle.Nomination{}, fmt.Errorf("list nominations: %w", err)
	}
	for _, n := range existing {
		if n.UserID == userID {
			return cycle.Nomination{}, fmt.Errorf("%w: user=%s", cycle.ErrDuplicateNomination, userID)
		}
		if n.MovieID == movieID {
			return cycle.Nomination{}, fmt.Errorf("%w: %q was already nominated by user=%s",
				cycle.ErrMovieAlreadyTaken, n.MovieTitle, n.UserID)
		}
	}

	metadata, err := s.movies.GetMovieByID(ctx, movieID)
	if err != nil {
		return cycle.Nomination{}, fmt.Errorf("%w: lookup movie %d: %v", ErrDependencyUnavailable, movieID, err)
	}

	nominationID, err := s.idGen.NewID()
	if err != nil {
		return cycle.Nomination{}, fmt.Errorf("generate nomination id: %w", err)
	}

	nomination := cycle.Nomination{
		ID:          nominationID,
		CycleID:     cycleID,
		UserID:      userID,
		MovieID:     movieID,
		MovieTitle:  metadata.Title,
		PosterPath:  metadata.PosterPath,
		ReleaseYear: metadata.ReleaseYear,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.cycleRepo.AddNomination(ctx, nomination); err != nil {
		return cycle.Nomination{}, fmt.Errorf("add nomination: %w", err)
	}

	s.logger.InfoContext(ctx, "nomination recorded",
		"cycle_id", cycleID,
		"user_id", userID,
		"movie_id", movieID,
		"movie_title", metadata.Title,
	)

	return nomination, nil
}
