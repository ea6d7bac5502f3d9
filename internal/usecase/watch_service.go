package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reelclub/movie-club/internal/domain/club"
	"github.com/reelclub/movie-club/internal/domain/cycle"
	"github.com/reelclub/movie-club/internal/platform/logging"
)

// WatchService flips the per-member watch checkboxes that were seeded
// when the cycle entered watching.
type WatchService struct {
	clubRepo  club.Repository
	cycleRepo cycle.Repository
	logger    *logging.Logger
	now       func() time.Time
}

func NewWatchService(clubRepo club.Repository, cycleRepo cycle.Repository, logger *logging.Logger) *WatchService {
	if logger == nil {
		logger = logging.Default()
	}

	return &WatchService{
		clubRepo:  clubRepo,
		cycleRepo: cycleRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// MarkWatched records that a member finished a nominated movie, with an
// optional 1-10 rating and free-form notes. It only touches rows that
// the watching-phase seeding created; marking something the cycle never
// nominated is an error, not an insert.
func (s *WatchService) MarkWatched(ctx context.Context, cycleID, userID, nominationID string, rating *int, notes string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.WatchService.MarkWatched")
	defer span.End()

	cycleID = strings.TrimSpace(cycleID)
	userID = strings.TrimSpace(userID)
	nominationID = strings.TrimSpace(nominationID)
	if cycleID == "" || userID == "" || nominationID == "" {
		return fmt.Errorf("%w: cycle id, user id and nomination id are required", ErrInvalidInput)
	}
	if rating != nil && (*rating < 1 || *rating > 10) {
		return fmt.Errorf("%w: rating must be between 1 and 10", ErrInvalidInput)
	}

	current, exists, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("get cycle: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: cycle=%s", ErrNotFound, cycleID)
	}
	if current.Phase != cycle.PhaseWatching && current.Phase != cycle.PhaseRanking {
		return fmt.Errorf("%w: watch progress is frozen in %s", cycle.ErrWrongPhase, current.Phase)
	}

	member, isMember, err := s.clubRepo.GetMember(ctx, current.ClubID, userID)
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	if !isMember || !member.IsActive {
		return fmt.Errorf("%w: user=%s is not an active member of club=%s", ErrUnauthorized, userID, current.ClubID)
	}

	rows, err := s.cycleRepo.ListWatchProgress(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("list watch progress: %w", err)
	}
	var seeded bool
	for _, row := range rows {
		if row.UserID == userID && row.NominationID == nominationID {
			seeded = true
			break
		}
	}
	if !seeded {
		return fmt.Errorf("%w: nomination=%s", cycle.ErrUnknownNomination, nominationID)
	}

	watchedAt := s.now().UTC()
	err = s.cycleRepo.UpdateWatchProgress(ctx, cycle.WatchProgress{
		CycleID:      cycleID,
		UserID:       userID,
		NominationID: nominationID,
		Watched:      true,
		WatchedAt:    &watchedAt,
		Rating:       rating,
		Notes:        notes,
	})
	if err != nil {
		return fmt.Errorf("update watch progress: %w", err)
	}

	s.logger.InfoContext(ctx, "watch progress updated",
		"cycle_id", cycleID,
		"user_id", userID,
		"nomination_id", nominationID,
	)

	return nil
}
