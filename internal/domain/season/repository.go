package season

import "context"

// Repository describes season-stats persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, clubID, userID string, year int) (Stats, bool, error)
	ListByClubYear(ctx context.Context, clubID string, year int) ([]Stats, error)
	// Upsert creates the row or replaces its totals.
	Upsert(ctx context.Context, s Stats) error
	// ReplaceByClubYear swaps all rows of one (club, year) bucket in a
	// single transaction; used by the standings rebuild job.
	ReplaceByClubYear(ctx context.Context, clubID string, year int, rows []Stats) error
	// ListYearsByClub returns the distinct season years with stats.
	ListYearsByClub(ctx context.Context, clubID string) ([]int, error)
}
