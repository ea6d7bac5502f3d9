package postgres

import "time"

type clubTableModel struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	Name      string    `db:"name"`
	OwnerID   string    `db:"owner_user_id"`
	InviteKey string    `db:"invite_key"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type clubMemberTableModel struct {
	ID       int64     `db:"id"`
	ClubID   string    `db:"club_public_id"`
	UserID   string    `db:"user_id"`
	Nickname string    `db:"nickname"`
	Role     string    `db:"role"`
	IsActive bool      `db:"is_active"`
	JoinedAt time.Time `db:"joined_at"`
}
