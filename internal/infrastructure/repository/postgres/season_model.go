package postgres

import "time"

type seasonStatsTableModel struct {
	ID                 int64     `db:"id"`
	ClubID             string    `db:"club_public_id"`
	UserID             string    `db:"user_id"`
	Year               int       `db:"season_year"`
	CyclesParticipated int       `db:"cycles_participated"`
	CyclesWon          int       `db:"cycles_won"`
	TotalPoints        int       `db:"total_points"`
	AveragePoints      float64   `db:"average_points"`
	UpdatedAt          time.Time `db:"updated_at"`
}
