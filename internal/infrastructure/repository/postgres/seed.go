package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/reelclub/movie-club/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo clubs, rosters, and theme pools on an
// empty database. It is a no-op once any club exists.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM clubs`); err != nil {
		return fmt.Errorf("count clubs for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range memory.SeedClubs() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO clubs (public_id, name, owner_user_id, invite_key)
VALUES (:public_id, :name, :owner_user_id, :invite_key)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":     c.ID,
			"name":          c.Name,
			"owner_user_id": c.OwnerID,
			"invite_key":    c.InviteKey,
		})
		if err != nil {
			return fmt.Errorf("bind seed club %s query: %w", c.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed club %s: %w", c.ID, err)
		}
	}

	for _, m := range memory.SeedMembers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO club_members (club_public_id, user_id, nickname, role, is_active)
VALUES (:club_public_id, :user_id, :nickname, :role, :is_active)
ON CONFLICT (club_public_id, user_id) DO NOTHING`, map[string]any{
			"club_public_id": m.ClubID,
			"user_id":        m.UserID,
			"nickname":       m.Nickname,
			"role":           string(m.Role),
			"is_active":      m.IsActive,
		})
		if err != nil {
			return fmt.Errorf("bind seed member %s query: %w", m.UserID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed member %s: %w", m.UserID, err)
		}
	}

	for _, th := range memory.SeedThemes() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO themes (public_id, club_public_id, theme_text, submitted_by, submitted_at)
VALUES (:public_id, :club_public_id, :theme_text, :submitted_by, :submitted_at)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":      th.ID,
			"club_public_id": th.ClubID,
			"theme_text":     th.Text,
			"submitted_by":   th.SubmittedBy,
			"submitted_at":   th.SubmittedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed theme %s query: %w", th.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed theme %s: %w", th.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap seed: %w", err)
	}
	return nil
}
