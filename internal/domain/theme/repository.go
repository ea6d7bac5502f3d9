package theme

import "context"

// Repository describes theme-pool persistence needs from use cases.
//
// Marking a theme used is not exposed here: it happens atomically with
// cycle creation inside the cycle repository, so two directors starting
// a cycle at once cannot both consume the same theme.
type Repository interface {
	Add(ctx context.Context, t Theme) error
	GetByID(ctx context.Context, themeID string) (Theme, bool, error)
	ListUnusedByClub(ctx context.Context, clubID string) ([]Theme, error)
}
