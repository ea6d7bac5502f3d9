package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/reelclub/movie-club/internal/domain/theme"
	qb "github.com/reelclub/movie-club/internal/platform/querybuilder"
)

type ThemeRepository struct {
	db *sqlx.DB
}

func NewThemeRepository(db *sqlx.DB) *ThemeRepository {
	return &ThemeRepository{db: db}
}

func (r *ThemeRepository) Add(ctx context.Context, item theme.Theme) error {
	insertModel := themeInsertModel{
		PublicID:    item.ID,
		ClubID:      item.ClubID,
		Text:        item.Text,
		SubmittedBy: item.SubmittedBy,
		SubmittedAt: item.SubmittedAt,
	}

	query, args, err := qb.InsertModel("themes", insertModel)
	if err != nil {
		return fmt.Errorf("build theme insert query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert theme: %w", err)
	}

	return nil
}

func (r *ThemeRepository) GetByID(ctx context.Context, themeID string) (theme.Theme, bool, error) {
	query, args, err := themeBaseSelectBuilder().
		Where(qb.Eq("public_id", themeID)).
		ToSQL()
	if err != nil {
		return theme.Theme{}, false, fmt.Errorf("build get theme query: %w", err)
	}

	var row themeTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return theme.Theme{}, false, nil
		}
		return theme.Theme{}, false, fmt.Errorf("get theme: %w", err)
	}

	return themeFromRow(row), true, nil
}

func (r *ThemeRepository) ListUnusedByClub(ctx context.Context, clubID string) ([]theme.Theme, error) {
	query, args, err := themeBaseSelectBuilder().
		Where(
			qb.Eq("club_public_id", clubID),
			qb.IsNull("used_at"),
		).
		OrderBy("submitted_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list unused themes query: %w", err)
	}

	var rows []themeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list unused themes: %w", err)
	}

	out := make([]theme.Theme, 0, len(rows))
	for _, row := range rows {
		out = append(out, themeFromRow(row))
	}
	return out, nil
}

func themeFromRow(row themeTableModel) theme.Theme {
	out := theme.Theme{
		ID:          row.PublicID,
		ClubID:      row.ClubID,
		Text:        row.Text,
		SubmittedBy: row.SubmittedBy,
		SubmittedAt: row.SubmittedAt,
		UsedAt:      row.UsedAt,
	}
	if row.UsedCycleID != nil {
		out.UsedCycleID = *row.UsedCycleID
	}
	return out
}

func themeBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("themes")
}
