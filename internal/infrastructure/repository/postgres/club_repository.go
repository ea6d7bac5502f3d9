package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/reelclub/movie-club/internal/domain/club"
	qb "github.com/reelclub/movie-club/internal/platform/querybuilder"
)

type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) GetByID(ctx context.Context, clubID string) (club.Club, bool, error) {
	query, args, err := qb.Select("*").
		From("clubs").
		Where(qb.Eq("public_id", clubID)).
		ToSQL()
	if err != nil {
		return club.Club{}, false, fmt.Errorf("build get club query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Club{}, false, nil
		}
		return club.Club{}, false, fmt.Errorf("get club: %w", err)
	}

	return clubFromRow(row), true, nil
}

func (r *ClubRepository) ListActiveMembers(ctx context.Context, clubID string) ([]club.Member, error) {
	query, args, err := qb.Select("*").
		From("club_members").
		Where(
			qb.Eq("club_public_id", clubID),
			qb.Eq("is_active", true),
		).
		OrderBy("joined_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active members query: %w", err)
	}

	var rows []clubMemberTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}

	out := make([]club.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, memberFromRow(row))
	}
	return out, nil
}

func (r *ClubRepository) GetMember(ctx context.Context, clubID, userID string) (club.Member, bool, error) {
	query, args, err := qb.Select("*").
		From("club_members").
		Where(
			qb.Eq("club_public_id", clubID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return club.Member{}, false, fmt.Errorf("build get member query: %w", err)
	}

	var row clubMemberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Member{}, false, nil
		}
		return club.Member{}, false, fmt.Errorf("get member: %w", err)
	}

	return memberFromRow(row), true, nil
}

func clubFromRow(row clubTableModel) club.Club {
	return club.Club{
		ID:        row.PublicID,
		Name:      row.Name,
		OwnerID:   row.OwnerID,
		InviteKey: row.InviteKey,
	}
}

func memberFromRow(row clubMemberTableModel) club.Member {
	return club.Member{
		ClubID:   row.ClubID,
		UserID:   row.UserID,
		Nickname: row.Nickname,
		Role:     club.Role(row.Role),
		IsActive: row.IsActive,
	}
}
