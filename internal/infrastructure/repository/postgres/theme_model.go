package postgres

import "time"

type themeTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	ClubID      string     `db:"club_public_id"`
	Text        string     `db:"theme_text"`
	SubmittedBy string     `db:"submitted_by"`
	SubmittedAt time.Time  `db:"submitted_at"`
	UsedAt      *time.Time `db:"used_at"`
	UsedCycleID *string    `db:"used_cycle_public_id"`
}

type themeInsertModel struct {
	PublicID    string    `db:"public_id"`
	ClubID      string    `db:"club_public_id"`
	Text        string    `db:"theme_text"`
	SubmittedBy string    `db:"submitted_by"`
	SubmittedAt time.Time `db:"submitted_at"`
}
