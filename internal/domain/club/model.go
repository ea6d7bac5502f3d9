package club

import "fmt"

// Club is a private group of members running movie cycles together.
type Club struct {
	ID        string
	Name      string
	OwnerID   string
	InviteKey string
}

// Member is one user's membership in a club.
type Member struct {
	ClubID   string
	UserID   string
	Nickname string
	Role     Role
	IsActive bool
}

type Role string

const (
	RoleDirector Role = "director"
	RoleMember   Role = "member"
)

func (c Club) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("club id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("club name is required")
	}

	return nil
}

// CanDirect reports whether the member may start or advance cycles.
func (m Member) CanDirect() bool {
	return m.IsActive && m.Role == RoleDirector
}
