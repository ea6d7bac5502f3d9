package club

import "context"

// Repository describes club and roster persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, clubID string) (Club, bool, error)
	// ListActiveMembers returns the active roster in join order.
	ListActiveMembers(ctx context.Context, clubID string) ([]Member, error)
	GetMember(ctx context.Context, clubID, userID string) (Member, bool, error)
}
