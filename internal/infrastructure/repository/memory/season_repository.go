package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/reelclub/movie-club/internal/domain/season"
)

type SeasonRepository struct {
	mu    sync.RWMutex
	items map[string]season.Stats
}

func NewSeasonRepository() *SeasonRepository {
	return &SeasonRepository{items: make(map[string]season.Stats)}
}

func (r *SeasonRepository) Get(_ context.Context, clubID, userID string, year int) (season.Stats, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[statsKey(clubID, userID, year)]
	if !ok {
		return season.Stats{}, false, nil
	}

	return item, true, nil
}

func (r *SeasonRepository) ListByClubYear(_ context.Context, clubID string, year int) ([]season.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]season.Stats, 0)
	for _, item := range r.items {
		if item.ClubID == clubID && item.Year == year {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })

	return items, nil
}

func (r *SeasonRepository) Upsert(_ context.Context, s season.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[statsKey(s.ClubID, s.UserID, s.Year)] = s
	return nil
}

func (r *SeasonRepository) ReplaceByClubYear(_ context.Context, clubID string, year int, rows []season.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, item := range r.items {
		if item.ClubID == clubID && item.Year == year {
			delete(r.items, key)
		}
	}
	for _, item := range rows {
		r.items[statsKey(item.ClubID, item.UserID, item.Year)] = item
	}

	return nil
}

func (r *SeasonRepository) ListYearsByClub(_ context.Context, clubID string) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int]struct{})
	for _, item := range r.items {
		if item.ClubID == clubID {
			seen[item.Year] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Ints(years)

	return years, nil
}

// applyDelta folds one cycle's increment into the bucket. Called by
// the cycle repository from inside its SaveResults critical section.
func (r *SeasonRepository) applyDelta(d season.Delta) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := statsKey(d.ClubID, d.UserID, d.Year)
	stats, ok := r.items[key]
	if !ok {
		stats = season.Stats{ClubID: d.ClubID, UserID: d.UserID, Year: d.Year}
	}
	stats.Apply(d.Points, d.Won)
	stats.UpdatedAt = d.AppliedAt
	r.items[key] = stats
}

func statsKey(clubID, userID string, year int) string {
	return clubID + "::" + userID + "::" + strconv.Itoa(year)
}
