package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/reelclub/movie-club/internal/domain/cycle"
	"github.com/reelclub/movie-club/internal/domain/season"
)

// CycleRepository keeps everything cycle-scoped under one lock so the
// multi-row methods are atomic the same way the postgres transactions
// are. It holds a ThemeRepository so Create can consume the drawn theme
// in the same critical section, and a SeasonRepository so SaveResults
// can fold the stat deltas in the same critical section.
type CycleRepository struct {
	mu      sync.RWMutex
	themes  *ThemeRepository
	seasons *SeasonRepository

	cycles      map[string]cycle.Cycle
	nominations map[string][]cycle.Nomination
	progress    map[string][]cycle.WatchProgress
	ballots     map[string]map[string]struct{}
	guesses     map[string][]cycle.Guess
	rankings    map[string][]cycle.Ranking
	results     map[string][]cycle.Result
}

func NewCycleRepository(themes *ThemeRepository, seasons *SeasonRepository) *CycleRepository {
	return &CycleRepository{
		themes:      themes,
		seasons:     seasons,
		cycles:      make(map[string]cycle.Cycle),
		nominations: make(map[string][]cycle.Nomination),
		progress:    make(map[string][]cycle.WatchProgress),
		ballots:     make(map[string]map[string]struct{}),
		guesses:     make(map[string][]cycle.Guess),
		rankings:    make(map[string][]cycle.Ranking),
		results:     make(map[string][]cycle.Result),
	}
}

func (r *CycleRepository) GetByID(_ context.Context, cycleID string) (cycle.Cycle, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.cycles[cycleID]
	if !ok {
		return cycle.Cycle{}, false, nil
	}

	return item, true, nil
}

func (r *CycleRepository) GetActiveByClub(_ context.Context, clubID string) (cycle.Cycle, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.cycles {
		if item.ClubID == clubID && item.Active() {
			return item, true, nil
		}
	}

	return cycle.Cycle{}, false, nil
}

func (r *CycleRepository) CountByClub(_ context.Context, clubID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.cycles {
		if item.ClubID == clubID {
			count++
		}
	}

	return count, nil
}

func (r *CycleRepository) Create(_ context.Context, c cycle.Cycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.cycles {
		if item.ClubID == c.ClubID && item.Active() {
			return cycle.ErrAlreadyActive
		}
	}
	if !r.themes.markUsed(c.ThemeID, c.ID, c.StartedAt) {
		// Lost the draw to a concurrent start; the pool may still hold
		// other unused themes.
		return fmt.Errorf("%w: theme=%s was consumed concurrently", cycle.ErrStale, c.ThemeID)
	}
	r.cycles[c.ID] = c

	return nil
}

func (r *CycleRepository) UpdatePhase(_ context.Context, cycleID string, from, to cycle.Phase, completedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.cycles[cycleID]
	if !ok || item.Phase != from {
		return fmt.Errorf("%w: cycle=%s expected phase %s", cycle.ErrStale, cycleID, from)
	}
	item.Phase = to
	if completedAt != nil {
		at := *completedAt
		item.CompletedAt = &at
	}
	r.cycles[cycleID] = item

	return nil
}

func (r *CycleRepository) AddNomination(_ context.Context, n cycle.Nomination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.nominations[n.CycleID] {
		if existing.UserID == n.UserID {
			return cycle.ErrDuplicateNomination
		}
		if existing.MovieID == n.MovieID {
			return cycle.ErrMovieAlreadyTaken
		}
	}
	r.nominations[n.CycleID] = append(r.nominations[n.CycleID], n)

	return nil
}

func (r *CycleRepository) ListNominations(_ context.Context, cycleID string) ([]cycle.Nomination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := append([]cycle.Nomination(nil), r.nominations[cycleID]...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})

	return items, nil
}

func (r *CycleRepository) SeedWatchProgress(_ context.Context, rows []cycle.WatchProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range rows {
		if r.findProgressLocked(row.CycleID, row.UserID, row.NominationID) >= 0 {
			continue
		}
		r.progress[row.CycleID] = append(r.progress[row.CycleID], row)
	}

	return nil
}

func (r *CycleRepository) ListWatchProgress(_ context.Context, cycleID string) ([]cycle.WatchProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]cycle.WatchProgress(nil), r.progress[cycleID]...), nil
}

func (r *CycleRepository) UpdateWatchProgress(_ context.Context, row cycle.WatchProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.findProgressLocked(row.CycleID, row.UserID, row.NominationID)
	if i < 0 {
		return cycle.ErrUnknownNomination
	}
	r.progress[row.CycleID][i] = row

	return nil
}

func (r *CycleRepository) findProgressLocked(cycleID, userID, nominationID string) int {
	for i, row := range r.progress[cycleID] {
		if row.UserID == userID && row.NominationID == nominationID {
			return i
		}
	}

	return -1
}

func (r *CycleRepository) HasBallot(_ context.Context, cycleID, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.ballots[cycleID][userID]
	return ok, nil
}

func (r *CycleRepository) SaveBallot(_ context.Context, cycleID, userID string, b cycle.Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ballots[cycleID][userID]; ok {
		return cycle.ErrAlreadySubmitted
	}
	if r.ballots[cycleID] == nil {
		r.ballots[cycleID] = make(map[string]struct{})
	}
	r.ballots[cycleID][userID] = struct{}{}
	r.guesses[cycleID] = append(r.guesses[cycleID], b.Guesses...)
	r.rankings[cycleID] = append(r.rankings[cycleID], b.Rankings...)

	return nil
}

func (r *CycleRepository) ListRankings(_ context.Context, cycleID string) ([]cycle.Ranking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]cycle.Ranking(nil), r.rankings[cycleID]...), nil
}

func (r *CycleRepository) ListGuesses(_ context.Context, cycleID string) ([]cycle.Guess, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]cycle.Guess(nil), r.guesses[cycleID]...), nil
}

func (r *CycleRepository) SaveResults(_ context.Context, c cycle.Cycle, results []cycle.Result, stats []season.Delta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.cycles[c.ID]
	if !ok || item.Phase != cycle.PhaseRanking {
		return fmt.Errorf("%w: cycle=%s is not in ranking", cycle.ErrStale, c.ID)
	}
	item.Phase = cycle.PhaseResults
	item.WinnerUserID = c.WinnerUserID
	item.WinnerNominationID = c.WinnerNominationID
	item.WinnerPoints = c.WinnerPoints
	r.cycles[c.ID] = item
	r.results[c.ID] = append([]cycle.Result(nil), results...)
	for _, d := range stats {
		r.seasons.applyDelta(d)
	}

	return nil
}

func (r *CycleRepository) ListResults(_ context.Context, cycleID string) ([]cycle.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := append([]cycle.Result(nil), r.results[cycleID]...)
	sort.Slice(items, func(i, j int) bool { return items[i].FinalRank < items[j].FinalRank })

	return items, nil
}

func (r *CycleRepository) ListCompletedByClub(_ context.Context, clubID string) ([]cycle.Cycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]cycle.Cycle, 0)
	for _, item := range r.cycles {
		if item.ClubID == clubID && item.Phase == cycle.PhaseIdle {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Number < items[j].Number })

	return items, nil
}
