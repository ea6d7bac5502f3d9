package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/reelclub/movie-club/internal/domain/season"
	qb "github.com/reelclub/movie-club/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) Get(ctx context.Context, clubID, userID string, year int) (season.Stats, bool, error) {
	query, args, err := seasonStatsBaseSelectBuilder().
		Where(
			qb.Eq("club_public_id", clubID),
			qb.Eq("user_id", userID),
			qb.Eq("season_year", year),
		).
		ToSQL()
	if err != nil {
		return season.Stats{}, false, fmt.Errorf("build get season stats query: %w", err)
	}

	var row seasonStatsTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Stats{}, false, nil
		}
		return season.Stats{}, false, fmt.Errorf("get season stats: %w", err)
	}

	return statsFromRow(row), true, nil
}

func (r *SeasonRepository) ListByClubYear(ctx context.Context, clubID string, year int) ([]season.Stats, error) {
	query, args, err := seasonStatsBaseSelectBuilder().
		Where(
			qb.Eq("club_public_id", clubID),
			qb.Eq("season_year", year),
		).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season stats query: %w", err)
	}

	var rows []seasonStatsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list season stats: %w", err)
	}

	out := make([]season.Stats, 0, len(rows))
	for _, row := range rows {
		out = append(out, statsFromRow(row))
	}
	return out, nil
}

func (r *SeasonRepository) Upsert(ctx context.Context, s season.Stats) error {
	const upsertQuery = `
INSERT INTO season_stats (club_public_id, user_id, season_year, cycles_participated, cycles_won, total_points, average_points, updated_at)
VALUES (:club_public_id, :user_id, :season_year, :cycles_participated, :cycles_won, :total_points, :average_points, :updated_at)
ON CONFLICT (club_public_id, user_id, season_year)
DO UPDATE SET
    cycles_participated = EXCLUDED.cycles_participated,
    cycles_won = EXCLUDED.cycles_won,
    total_points = EXCLUDED.total_points,
    average_points = EXCLUDED.average_points,
    updated_at = EXCLUDED.updated_at`

	sqlQuery, args, err := sqlx.Named(upsertQuery, upsertArgs(s))
	if err != nil {
		return fmt.Errorf("bind season stats upsert query: %w", err)
	}
	sqlQuery = r.db.Rebind(sqlQuery)
	if _, err := r.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("upsert season stats: %w", err)
	}

	return nil
}

// ReplaceByClubYear swaps one (club, year) bucket wholesale so a
// rebuild can never leave a mix of old and new rows.
func (r *SeasonRepository) ReplaceByClubYear(ctx context.Context, clubID string, year int, rows []season.Stats) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for season stats replace: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const deleteQuery = `DELETE FROM season_stats WHERE club_public_id = $1 AND season_year = $2`
	if _, err := tx.ExecContext(ctx, deleteQuery, clubID, year); err != nil {
		return fmt.Errorf("clear season stats bucket: %w", err)
	}

	const insertQuery = `
INSERT INTO season_stats (club_public_id, user_id, season_year, cycles_participated, cycles_won, total_points, average_points, updated_at)
VALUES (:club_public_id, :user_id, :season_year, :cycles_participated, :cycles_won, :total_points, :average_points, :updated_at)`
	for _, row := range rows {
		sqlQuery, args, err := sqlx.Named(insertQuery, upsertArgs(row))
		if err != nil {
			return fmt.Errorf("bind season stats insert query: %w", err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("insert season stats user=%s: %w", row.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit season stats replace: %w", err)
	}
	return nil
}

func (r *SeasonRepository) ListYearsByClub(ctx context.Context, clubID string) ([]int, error) {
	query, args, err := qb.Select("DISTINCT season_year").
		From("season_stats").
		Where(qb.Eq("club_public_id", clubID)).
		OrderBy("season_year").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season years query: %w", err)
	}

	var years []int
	if err := r.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, fmt.Errorf("list season years: %w", err)
	}

	return years, nil
}

func upsertArgs(s season.Stats) map[string]any {
	return map[string]any{
		"club_public_id":      s.ClubID,
		"user_id":             s.UserID,
		"season_year":         s.Year,
		"cycles_participated": s.CyclesParticipated,
		"cycles_won":          s.CyclesWon,
		"total_points":        s.TotalPoints,
		"average_points":      s.AveragePoints,
		"updated_at":          s.UpdatedAt,
	}
}

func statsFromRow(row seasonStatsTableModel) season.Stats {
	return season.Stats{
		ClubID:             row.ClubID,
		UserID:             row.UserID,
		Year:               row.Year,
		CyclesParticipated: row.CyclesParticipated,
		CyclesWon:          row.CyclesWon,
		TotalPoints:        row.TotalPoints,
		AveragePoints:      row.AveragePoints,
		UpdatedAt:          row.UpdatedAt,
	}
}

func seasonStatsBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("season_stats")
}
