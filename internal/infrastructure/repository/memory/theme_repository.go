package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/reelclub/movie-club/internal/domain/theme"
)

type ThemeRepository struct {
	mu    sync.RWMutex
	items map[string]theme.Theme
}

func NewThemeRepository() *ThemeRepository {
	return &ThemeRepository{items: make(map[string]theme.Theme)}
}

func (r *ThemeRepository) Add(_ context.Context, item theme.Theme) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.ID] = item
	return nil
}

func (r *ThemeRepository) GetByID(_ context.Context, themeID string) (theme.Theme, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[themeID]
	if !ok {
		return theme.Theme{}, false, nil
	}

	return item, true, nil
}

func (r *ThemeRepository) ListUnusedByClub(_ context.Context, clubID string) ([]theme.Theme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unused := make([]theme.Theme, 0, len(r.items))
	for _, item := range r.items {
		if item.ClubID == clubID && !item.Used() {
			unused = append(unused, item)
		}
	}
	sort.Slice(unused, func(i, j int) bool {
		return unused[i].SubmittedAt.Before(unused[j].SubmittedAt)
	})

	return unused, nil
}

// markUsed is called by the cycle repository while it holds its own
// lock; theme state and cycle state change together from the caller's
// point of view.
func (r *ThemeRepository) markUsed(themeID, cycleID string, usedAt time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[themeID]
	if !ok || item.Used() {
		return false
	}
	at := usedAt
	item.UsedAt = &at
	item.UsedCycleID = cycleID
	r.items[themeID] = item

	return true
}
