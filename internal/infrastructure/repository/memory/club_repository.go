package memory

import (
	"context"
	"sync"

	"github.com/reelclub/movie-club/internal/domain/club"
)

type ClubRepository struct {
	mu      sync.RWMutex
	clubs   map[string]club.Club
	members map[string][]club.Member
}

func NewClubRepository() *ClubRepository {
	return &ClubRepository{
		clubs:   make(map[string]club.Club),
		members: make(map[string][]club.Member),
	}
}

func (r *ClubRepository) GetByID(_ context.Context, clubID string) (club.Club, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.clubs[clubID]
	if !ok {
		return club.Club{}, false, nil
	}

	return item, true, nil
}

func (r *ClubRepository) ListActiveMembers(_ context.Context, clubID string) ([]club.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roster := r.members[clubID]
	active := make([]club.Member, 0, len(roster))
	for _, m := range roster {
		if m.IsActive {
			active = append(active, m)
		}
	}

	return active, nil
}

func (r *ClubRepository) GetMember(_ context.Context, clubID, userID string) (club.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.members[clubID] {
		if m.UserID == userID {
			return m, true, nil
		}
	}

	return club.Member{}, false, nil
}

func (r *ClubRepository) UpsertClub(_ context.Context, item club.Club) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clubs[item.ID] = item
	return nil
}

func (r *ClubRepository) UpsertMember(_ context.Context, item club.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	roster := r.members[item.ClubID]
	for i, m := range roster {
		if m.UserID == item.UserID {
			roster[i] = item
			return nil
		}
	}
	r.members[item.ClubID] = append(roster, item)

	return nil
}
