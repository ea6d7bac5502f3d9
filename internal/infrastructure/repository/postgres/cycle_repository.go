package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/reelclub/movie-club/internal/domain/cycle"
	"github.com/reelclub/movie-club/internal/domain/season"
	qb "github.com/reelclub/movie-club/internal/platform/querybuilder"
)

const (
	constraintActiveCyclePerClub   = "uq_cycles_active_club"
	constraintNominationPerUser    = "uq_cycle_nominations_cycle_user"
	constraintNominationPerMovie   = "uq_cycle_nominations_cycle_movie"
	constraintBallotPerUser        = "uq_cycle_ballots_cycle_user"
	constraintWatchProgressPerPair = "uq_cycle_watch_progress_row"
)

type CycleRepository struct {
	db *sqlx.DB
}

func NewCycleRepository(db *sqlx.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

func (r *CycleRepository) GetByID(ctx context.Context, cycleID string) (cycle.Cycle, bool, error) {
	query, args, err := cycleBaseSelectBuilder().
		Where(qb.Eq("public_id", cycleID)).
		ToSQL()
	if err != nil {
		return cycle.Cycle{}, false, fmt.Errorf("build get cycle query: %w", err)
	}

	var row cycleTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return cycle.Cycle{}, false, nil
		}
		return cycle.Cycle{}, false, fmt.Errorf("get cycle: %w", err)
	}

	return cycleFromRow(row), true, nil
}

func (r *CycleRepository) GetActiveByClub(ctx context.Context, clubID string) (cycle.Cycle, bool, error) {
	query, args, err := cycleBaseSelectBuilder().
		Where(
			qb.Eq("club_public_id", clubID),
			qb.Expr("phase <> 'idle'"),
		).
		ToSQL()
	if err != nil {
		return cycle.Cycle{}, false, fmt.Errorf("build get active cycle query: %w", err)
	}

	var row cycleTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return cycle.Cycle{}, false, nil
		}
		return cycle.Cycle{}, false, fmt.Errorf("get active cycle: %w", err)
	}

	return cycleFromRow(row), true, nil
}

func (r *CycleRepository) CountByClub(ctx context.Context, clubID string) (int, error) {
	query, args, err := qb.Select("COUNT(1)").
		From("cycles").
		Where(qb.Eq("club_public_id", clubID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count cycles query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count cycles: %w", err)
	}

	return count, nil
}

// Create inserts the cycle and consumes its theme in one transaction.
// The conditional theme update loses against a concurrent start that
// drew the same theme; the partial unique index on active cycles loses
// against one that drew a different theme.
func (r *CycleRepository) Create(ctx context.Context, c cycle.Cycle) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for cycle create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	markUsedQuery, markUsedArgs, err := qb.Update("themes").
		Set("used_at", c.StartedAt).
		Set("used_cycle_public_id", c.ID).
		Where(
			qb.Eq("public_id", c.ThemeID),
			qb.IsNull("used_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark theme used query: %w", err)
	}
	res, err := tx.ExecContext(ctx, markUsedQuery, markUsedArgs...)
	if err != nil {
		return fmt.Errorf("mark theme used: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("mark theme used rows affected: %w", err)
	} else if affected == 0 {
		// The drawn theme went to a concurrent start. Other unused
		// themes may remain, so this is a redraw, not an empty pool.
		return fmt.Errorf("%w: theme=%s was consumed concurrently", cycle.ErrStale, c.ThemeID)
	}

	insertModel := cycleInsertModel{
		PublicID:   c.ID,
		ClubID:     c.ClubID,
		ThemeID:    c.ThemeID,
		ThemeText:  c.ThemeText,
		Phase:      c.Phase.String(),
		Number:     c.Number,
		SeasonYear: c.SeasonYear,
		StartedAt:  c.StartedAt,
	}
	insertQuery, insertArgs, err := qb.InsertModel("cycles", insertModel)
	if err != nil {
		return fmt.Errorf("build cycle insert query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		if isUniqueViolation(err, constraintActiveCyclePerClub) {
			return cycle.ErrAlreadyActive
		}
		return fmt.Errorf("insert cycle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cycle create: %w", err)
	}
	return nil
}

func (r *CycleRepository) UpdatePhase(ctx context.Context, cycleID string, from, to cycle.Phase, completedAt *time.Time) error {
	builder := qb.Update("cycles").
		Set("phase", to.String())
	if completedAt != nil {
		builder = builder.Set("completed_at", *completedAt)
	}
	query, args, err := builder.
		Where(
			qb.Eq("public_id", cycleID),
			qb.Eq("phase", from.String()),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update phase query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update phase: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update phase rows affected: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("%w: cycle=%s expected phase %s", cycle.ErrStale, cycleID, from)
	}

	return nil
}

func (r *CycleRepository) AddNomination(ctx context.Context, n cycle.Nomination) error {
	insertModel := nominationInsertModel{
		PublicID:    n.ID,
		CycleID:     n.CycleID,
		UserID:      n.UserID,
		MovieID:     n.MovieID,
		MovieTitle:  n.MovieTitle,
		PosterPath:  n.PosterPath,
		ReleaseYear: n.ReleaseYear,
		SubmittedAt: n.SubmittedAt,
	}
	query, args, err := qb.InsertModel("cycle_nominations", insertModel)
	if err != nil {
		return fmt.Errorf("build nomination insert query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		switch {
		case isUniqueViolation(err, constraintNominationPerUser):
			return cycle.ErrDuplicateNomination
		case isUniqueViolation(err, constraintNominationPerMovie):
			return cycle.ErrMovieAlreadyTaken
		}
		return fmt.Errorf("insert nomination: %w", err)
	}

	return nil
}

func (r *CycleRepository) ListNominations(ctx context.Context, cycleID string) ([]cycle.Nomination, error) {
	query, args, err := qb.Select("*").
		From("cycle_nominations").
		Where(qb.Eq("cycle_public_id", cycleID)).
		OrderBy("submitted_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list nominations query: %w", err)
	}

	var rows []nominationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list nominations: %w", err)
	}

	out := make([]cycle.Nomination, 0, len(rows))
	for _, row := range rows {
		out = append(out, nominationFromRow(row))
	}
	return out, nil
}

func (r *CycleRepository) SeedWatchProgress(ctx context.Context, rows []cycle.WatchProgress) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for watch progress seed: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `
INSERT INTO cycle_watch_progress (cycle_public_id, user_id, nomination_public_id, watched, watched_at, notes)
VALUES (:cycle_public_id, :user_id, :nomination_public_id, :watched, :watched_at, :notes)
ON CONFLICT (cycle_public_id, user_id, nomination_public_id) DO NOTHING`
	for _, row := range rows {
		sqlQuery, args, err := sqlx.Named(insertQuery, map[string]any{
			"cycle_public_id":      row.CycleID,
			"user_id":              row.UserID,
			"nomination_public_id": row.NominationID,
			"watched":              row.Watched,
			"watched_at":           row.WatchedAt,
			"notes":                row.Notes,
		})
		if err != nil {
			return fmt.Errorf("bind watch progress seed query: %w", err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed watch progress row user=%s: %w", row.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit watch progress seed: %w", err)
	}
	return nil
}

func (r *CycleRepository) ListWatchProgress(ctx context.Context, cycleID string) ([]cycle.WatchProgress, error) {
	query, args, err := qb.Select("*").
		From("cycle_watch_progress").
		Where(qb.Eq("cycle_public_id", cycleID)).
		OrderBy("user_id", "nomination_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list watch progress query: %w", err)
	}

	var rows []watchProgressTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list watch progress: %w", err)
	}

	out := make([]cycle.WatchProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, cycle.WatchProgress{
			CycleID:      row.CycleID,
			UserID:       row.UserID,
			NominationID: row.NominationID,
			Watched:      row.Watched,
			WatchedAt:    row.WatchedAt,
			Rating:       row.Rating,
			Notes:        row.Notes,
		})
	}
	return out, nil
}

func (r *CycleRepository) UpdateWatchProgress(ctx context.Context, row cycle.WatchProgress) error {
	builder := qb.Update("cycle_watch_progress").
		Set("watched", row.Watched).
		Set("watched_at", row.WatchedAt).
		Set("notes", row.Notes)
	if row.Rating != nil {
		builder = builder.Set("rating", *row.Rating)
	}
	query, args, err := builder.
		Where(
			qb.Eq("cycle_public_id", row.CycleID),
			qb.Eq("user_id", row.UserID),
			qb.Eq("nomination_public_id", row.NominationID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update watch progress query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update watch progress: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update watch progress rows affected: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("%w: no seeded row for nomination=%s", cycle.ErrUnknownNomination, row.NominationID)
	}

	return nil
}

func (r *CycleRepository) HasBallot(ctx context.Context, cycleID, userID string) (bool, error) {
	query, args, err := qb.Select("COUNT(1)").
		From("cycle_ballots").
		Where(
			qb.Eq("cycle_public_id", cycleID),
			qb.Eq("user_id", userID),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build has ballot query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check ballot: %w", err)
	}

	return count > 0, nil
}

// SaveBallot inserts the ballot marker plus every guess and ranking in
// one transaction. The marker's unique index makes the at-most-once
// rule hold even when two submissions race past the service pre-check.
func (r *CycleRepository) SaveBallot(ctx context.Context, cycleID, userID string, b cycle.Ballot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for ballot save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	markerQuery, markerArgs, err := qb.InsertInto("cycle_ballots").
		Columns("cycle_public_id", "user_id").
		Values(cycleID, userID).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build ballot marker query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, markerQuery, markerArgs...); err != nil {
		if isUniqueViolation(err, constraintBallotPerUser) {
			return cycle.ErrAlreadySubmitted
		}
		return fmt.Errorf("insert ballot marker: %w", err)
	}

	for _, g := range b.Guesses {
		query, args, err := qb.InsertInto("cycle_guesses").
			Columns("cycle_public_id", "guesser_user_id", "nomination_public_id", "guessed_nominator_id", "is_correct").
			Values(g.CycleID, g.GuesserID, g.NominationID, g.GuessedNominatorID, g.IsCorrect).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build guess insert query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert guess nomination=%s: %w", g.NominationID, err)
		}
	}

	for _, rank := range b.Rankings {
		query, args, err := qb.InsertInto("cycle_rankings").
			Columns("cycle_public_id", "ranker_user_id", "nomination_public_id", "rank_position").
			Values(rank.CycleID, rank.RankerID, rank.NominationID, rank.Position).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build ranking insert query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert ranking nomination=%s: %w", rank.NominationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ballot save: %w", err)
	}
	return nil
}

func (r *CycleRepository) ListRankings(ctx context.Context, cycleID string) ([]cycle.Ranking, error) {
	query, args, err := qb.Select("*").
		From("cycle_rankings").
		Where(qb.Eq("cycle_public_id", cycleID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rankings query: %w", err)
	}

	var rows []rankingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}

	out := make([]cycle.Ranking, 0, len(rows))
	for _, row := range rows {
		out = append(out, cycle.Ranking{
			CycleID:      row.CycleID,
			RankerID:     row.RankerID,
			NominationID: row.NominationID,
			Position:     row.Position,
		})
	}
	return out, nil
}

func (r *CycleRepository) ListGuesses(ctx context.Context, cycleID string) ([]cycle.Guess, error) {
	query, args, err := qb.Select("*").
		From("cycle_guesses").
		Where(qb.Eq("cycle_public_id", cycleID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list guesses query: %w", err)
	}

	var rows []guessTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list guesses: %w", err)
	}

	out := make([]cycle.Guess, 0, len(rows))
	for _, row := range rows {
		out = append(out, cycle.Guess{
			CycleID:            row.CycleID,
			GuesserID:          row.GuesserID,
			NominationID:       row.NominationID,
			GuessedNominatorID: row.GuessedNominatorID,
			IsCorrect:          row.IsCorrect,
		})
	}
	return out, nil
}

// SaveResults writes the result rows, flips ranking->results with the
// winner fields, and folds the season stat deltas, all in one
// transaction; the conditional phase update keeps a cycle from ever
// being scored twice, which in turn keeps each delta applied at most
// once.
func (r *CycleRepository) SaveResults(ctx context.Context, c cycle.Cycle, results []cycle.Result, stats []season.Delta) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for results save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	builder := qb.Update("cycles").
		Set("phase", cycle.PhaseResults.String()).
		Set("winner_points", c.WinnerPoints)
	if c.WinnerUserID != "" {
		builder = builder.
			Set("winner_user_id", c.WinnerUserID).
			Set("winner_nomination_public_id", c.WinnerNominationID)
	}
	updateQuery, updateArgs, err := builder.
		Where(
			qb.Eq("public_id", c.ID),
			qb.Eq("phase", cycle.PhaseRanking.String()),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build close ranking query: %w", err)
	}
	res, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
	if err != nil {
		return fmt.Errorf("close ranking: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("close ranking rows affected: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("%w: cycle=%s is not in ranking", cycle.ErrStale, c.ID)
	}

	for _, row := range results {
		query, args, err := qb.InsertInto("cycle_results").
			Columns("cycle_public_id", "user_id", "nomination_public_id",
				"average_rank", "final_rank", "points_earned", "guess_accuracy", "votes_received").
			Values(row.CycleID, row.UserID, row.NominationID,
				row.AverageRank, row.FinalRank, row.PointsEarned, row.GuessAccuracy, row.VotesReceived).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build result insert query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert result rank=%d: %w", row.FinalRank, err)
		}
	}

	for _, d := range stats {
		if _, err := tx.ExecContext(ctx, upsertSeasonDeltaQuery,
			d.ClubID, d.UserID, d.Year, boolToInt(d.Won), d.Points, d.AppliedAt); err != nil {
			return fmt.Errorf("fold season stats user=%s: %w", d.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results save: %w", err)
	}
	return nil
}

// The average is re-derived from the post-increment totals so it never
// drifts from total_points / cycles_participated.
const upsertSeasonDeltaQuery = `
INSERT INTO season_stats
	(club_public_id, user_id, season_year, cycles_participated, cycles_won, total_points, average_points, updated_at)
VALUES ($1, $2, $3, 1, $4, $5, $5, $6)
ON CONFLICT (club_public_id, user_id, season_year) DO UPDATE SET
	cycles_participated = season_stats.cycles_participated + 1,
	cycles_won = season_stats.cycles_won + EXCLUDED.cycles_won,
	total_points = season_stats.total_points + EXCLUDED.total_points,
	average_points = (season_stats.total_points + EXCLUDED.total_points)::double precision
		/ (season_stats.cycles_participated + 1),
	updated_at = EXCLUDED.updated_at`

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (r *CycleRepository) ListResults(ctx context.Context, cycleID string) ([]cycle.Result, error) {
	query, args, err := qb.Select("*").
		From("cycle_results").
		Where(qb.Eq("cycle_public_id", cycleID)).
		OrderBy("final_rank").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list results query: %w", err)
	}

	var rows []resultTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out := make([]cycle.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, cycle.Result{
			CycleID:       row.CycleID,
			UserID:        row.UserID,
			NominationID:  row.NominationID,
			AverageRank:   row.AverageRank,
			FinalRank:     row.FinalRank,
			PointsEarned:  row.PointsEarned,
			GuessAccuracy: row.GuessAccuracy,
			VotesReceived: row.VotesReceived,
		})
	}
	return out, nil
}

func (r *CycleRepository) ListCompletedByClub(ctx context.Context, clubID string) ([]cycle.Cycle, error) {
	query, args, err := cycleBaseSelectBuilder().
		Where(
			qb.Eq("club_public_id", clubID),
			qb.Eq("phase", cycle.PhaseIdle.String()),
		).
		OrderBy("cycle_number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list completed cycles query: %w", err)
	}

	var rows []cycleTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list completed cycles: %w", err)
	}

	out := make([]cycle.Cycle, 0, len(rows))
	for _, row := range rows {
		out = append(out, cycleFromRow(row))
	}
	return out, nil
}

func cycleFromRow(row cycleTableModel) cycle.Cycle {
	out := cycle.Cycle{
		ID:           row.PublicID,
		ClubID:       row.ClubID,
		ThemeID:      row.ThemeID,
		ThemeText:    row.ThemeText,
		Phase:        cycle.Phase(row.Phase),
		Number:       row.Number,
		SeasonYear:   row.SeasonYear,
		StartedAt:    row.StartedAt,
		CompletedAt:  row.CompletedAt,
		WinnerPoints: row.WinnerPoints,
	}
	if row.WinnerUserID != nil {
		out.WinnerUserID = *row.WinnerUserID
	}
	if row.WinnerNominationID != nil {
		out.WinnerNominationID = *row.WinnerNominationID
	}
	return out
}

func nominationFromRow(row nominationTableModel) cycle.Nomination {
	return cycle.Nomination{
		ID:          row.PublicID,
		CycleID:     row.CycleID,
		UserID:      row.UserID,
		MovieID:     row.MovieID,
		MovieTitle:  row.MovieTitle,
		PosterPath:  row.PosterPath,
		ReleaseYear: row.ReleaseYear,
		SubmittedAt: row.SubmittedAt,
	}
}

func cycleBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("cycles")
}
