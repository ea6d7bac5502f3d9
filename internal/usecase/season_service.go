package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/reelclub/movie-club/internal/domain/club"
	"github.com/reelclub/movie-club/internal/domain/cycle"
	"github.com/reelclub/movie-club/internal/domain/season"
	"github.com/reelclub/movie-club/internal/platform/logging"
)

const defaultRebuildWorkers = 4

// SeasonService maintains running per-user season totals and serves
// club standings.
type SeasonService struct {
	clubRepo   club.Repository
	cycleRepo  cycle.Repository
	seasonRepo season.Repository
	logger     *logging.Logger
	now        func() time.Time
}

func NewSeasonService(
	clubRepo club.Repository,
	cycleRepo cycle.Repository,
	seasonRepo season.Repository,
	logger *logging.Logger,
) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SeasonService{
		clubRepo:   clubRepo,
		cycleRepo:  cycleRepo,
		seasonRepo: seasonRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// seasonDeltas maps a scored cycle's result rows to the stat
// increments their (club, year) buckets take. The deltas ride in the
// same transaction as the result rows, so a failed scoring pass folds
// nothing and a successful one folds exactly once.
func seasonDeltas(scored cycle.Cycle, results []cycle.Result, appliedAt time.Time) []season.Delta {
	deltas := make([]season.Delta, 0, len(results))
	for _, row := range results {
		deltas = append(deltas, season.Delta{
			ClubID:    scored.ClubID,
			UserID:    row.UserID,
			Year:      scored.SeasonYear,
			Points:    row.PointsEarned,
			Won:       row.FinalRank == 1,
			AppliedAt: appliedAt,
		})
	}

	return deltas
}

// ListStandings returns the club's season table ordered by total
// points, with dense rank positions.
func (s *SeasonService) ListStandings(ctx context.Context, clubID string, year int) ([]season.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.ListStandings")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}
	if year <= 0 {
		year = s.now().UTC().Year()
	}

	if _, exists, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		return nil, fmt.Errorf("get club: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
	}

	rows, err := s.seasonRepo.ListByClubYear(ctx, clubID, year)
	if err != nil {
		return nil, fmt.Errorf("list season stats: %w", err)
	}

	return rankStandings(rows), nil
}

func rankStandings(rows []season.Stats) []season.Standing {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalPoints != rows[j].TotalPoints {
			return rows[i].TotalPoints > rows[j].TotalPoints
		}
		if rows[i].CyclesWon != rows[j].CyclesWon {
			return rows[i].CyclesWon > rows[j].CyclesWon
		}
		return rows[i].UserID < rows[j].UserID
	})

	out := make([]season.Standing, 0, len(rows))
	lastPoints := 0
	position := 0
	for idx, row := range rows {
		if idx == 0 || row.TotalPoints != lastPoints {
			position++
			lastPoints = row.TotalPoints
		}
		out = append(out, season.Standing{Stats: row, Position: position})
	}

	return out
}

// RebuildResult summarizes one standings rebuild run.
type RebuildResult struct {
	ClubID      string `json:"club_id"`
	SeasonCount int    `json:"season_count"`
	RowCount    int    `json:"row_count"`
	WorkerCount int    `json:"worker_count"`
	DurationMs  int64  `json:"duration_ms"`
}

// Rebuild recomputes every SeasonStats row of the club from stored
// cycle results, replacing each (club, year) bucket transactionally.
// Seasons are processed on a bounded worker pool.
func (s *SeasonService) Rebuild(ctx context.Context, clubID string, maxWorkers int) (RebuildResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.Rebuild")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return RebuildResult{}, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}
	if _, exists, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		return RebuildResult{}, fmt.Errorf("get club: %w", err)
	} else if !exists {
		return RebuildResult{}, fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
	}

	started := s.now()
	completed, err := s.cycleRepo.ListCompletedByClub(ctx, clubID)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("list completed cycles: %w", err)
	}

	cyclesByYear := make(map[int][]cycle.Cycle)
	for _, item := range completed {
		cyclesByYear[item.SeasonYear] = append(cyclesByYear[item.SeasonYear], item)
	}

	years := make([]int, 0, len(cyclesByYear))
	for year := range cyclesByYear {
		years = append(years, year)
	}
	sort.Ints(years)

	workerCount := maxWorkers
	if workerCount <= 0 {
		workerCount = defaultRebuildWorkers
	}
	if workerCount > len(years) && len(years) > 0 {
		workerCount = len(years)
	}

	workers, err := ants.NewPool(workerCount)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("create rebuild worker pool: %w", err)
	}
	defer workers.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	rowCount := 0
	var firstErr error

	for _, year := range years {
		year := year
		cycles := cyclesByYear[year]
		wg.Add(1)
		submitErr := workers.Submit(func() {
			defer wg.Done()
			rows, rebuildErr := s.rebuildYear(ctx, clubID, year, cycles)
			mu.Lock()
			defer mu.Unlock()
			if rebuildErr != nil && firstErr == nil {
				firstErr = rebuildErr
				return
			}
			rowCount += rows
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submit rebuild year=%d: %w", year, submitErr)
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return RebuildResult{}, firstErr
	}

	result := RebuildResult{
		ClubID:      clubID,
		SeasonCount: len(years),
		RowCount:    rowCount,
		WorkerCount: workerCount,
		DurationMs:  time.Since(started).Milliseconds(),
	}
	s.logger.InfoContext(ctx, "season standings rebuilt",
		"club_id", clubID,
		"seasons", result.SeasonCount,
		"rows", result.RowCount,
	)

	return result, nil
}

func (s *SeasonService) rebuildYear(ctx context.Context, clubID string, year int, cycles []cycle.Cycle) (int, error) {
	byUser := make(map[string]*season.Stats)
	for _, item := range cycles {
		results, err := s.cycleRepo.ListResults(ctx, item.ID)
		if err != nil {
			return 0, fmt.Errorf("list results cycle=%s: %w", item.ID, err)
		}
		for _, row := range results {
			stats, ok := byUser[row.UserID]
			if !ok {
				stats = &season.Stats{ClubID: clubID, UserID: row.UserID, Year: year}
				byUser[row.UserID] = stats
			}
			stats.Apply(row.PointsEarned, row.FinalRank == 1)
		}
	}

	now := s.now().UTC()
	rows := make([]season.Stats, 0, len(byUser))
	for _, stats := range byUser {
		stats.UpdatedAt = now
		rows = append(rows, *stats)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })

	if err := s.seasonRepo.ReplaceByClubYear(ctx, clubID, year, rows); err != nil {
		return 0, fmt.Errorf("replace season stats year=%d: %w", year, err)
	}

	return len(rows), nil
}
