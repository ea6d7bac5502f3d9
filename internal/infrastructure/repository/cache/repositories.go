package cache

import (
	"context"

	"github.com/reelclub/movie-club/internal/domain/club"
	basecache "github.com/reelclub/movie-club/internal/platform/cache"
)

// ClubRepository caches club and roster reads in front of another
// club.Repository. Club metadata and membership change rarely, so a
// short TTL keeps the hot read paths off the database.
//
// Theme and cycle reads are deliberately not cached: the cycle state
// machine picks themes and gates transitions on what it reads, and a
// stale answer there changes behavior rather than just freshness.
type ClubRepository struct {
	next  club.Repository
	cache *basecache.Store
}

func NewClubRepository(next club.Repository, cache *basecache.Store) *ClubRepository {
	return &ClubRepository{next: next, cache: cache}
}

func (r *ClubRepository) GetByID(ctx context.Context, clubID string) (club.Club, bool, error) {
	key := "club:id:" + clubID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, clubID)
		if err != nil {
			return nil, err
		}
		return cachedClub{value: item, exists: exists}, nil
	})
	if err != nil {
		return club.Club{}, false, err
	}

	cached, _ := v.(cachedClub)
	return cached.value, cached.exists, nil
}

func (r *ClubRepository) ListActiveMembers(ctx context.Context, clubID string) ([]club.Member, error) {
	key := "club:members:" + clubID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListActiveMembers(ctx, clubID)
		if err != nil {
			return nil, err
		}
		return append([]club.Member(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]club.Member)
	return append([]club.Member(nil), items...), nil
}

func (r *ClubRepository) GetMember(ctx context.Context, clubID, userID string) (club.Member, bool, error) {
	key := "club:member:" + clubID + ":" + userID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetMember(ctx, clubID, userID)
		if err != nil {
			return nil, err
		}
		return cachedMember{value: item, exists: exists}, nil
	})
	if err != nil {
		return club.Member{}, false, err
	}

	cached, _ := v.(cachedMember)
	return cached.value, cached.exists, nil
}

type cachedClub struct {
	value  club.Club
	exists bool
}

type cachedMember struct {
	value  club.Member
	exists bool
}
