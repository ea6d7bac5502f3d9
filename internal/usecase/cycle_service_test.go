package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/reelclub/movie-club/internal/domain/club"
	"github.com/reelclub/movie-club/internal/domain/cycle"
	"github.com/reelclub/movie-club/internal/domain/season"
	"github.com/reelclub/movie-club/internal/domain/theme"
	"github.com/reelclub/movie-club/internal/infrastructure/repository/memory"
	"github.com/reelclub/movie-club/internal/platform/logging"
)

type seqIDGenerator struct {
	prefix string
	n      int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n), nil
}

type stubMovieLookup struct {
	byID map[int64]MovieMetadata
	err  error
}

func (s *stubMovieLookup) GetMovieByID(_ context.Context, movieID int64) (MovieMetadata, error) {
	if s.err != nil {
		return MovieMetadata{}, s.err
	}
	meta, ok := s.byID[movieID]
	if !ok {
		return MovieMetadata{}, fmt.Errorf("movie %d not found", movieID)
	}
	return meta, nil
}

// clubFixture wires the full service stack over the in-memory
// repositories with deterministic time, ids, and theme draws.
type clubFixture struct {
	clubs   *memory.ClubRepository
	themes  *memory.ThemeRepository
	cycles  *memory.CycleRepository
	seasons *memory.SeasonRepository

	cycleSvc      *CycleService
	nominationSvc *NominationService
	ballotSvc     *BallotService
	watchSvc      *WatchService
	seasonSvc     *SeasonService

	now time.Time
}

const (
	fixtureClubID   = "club-1"
	fixtureDirector = "ana"
)

func newClubFixture(t *testing.T, memberIDs ...string) *clubFixture {
	t.Helper()

	f := &clubFixture{
		clubs:   memory.NewClubRepository(),
		themes:  memory.NewThemeRepository(),
		seasons: memory.NewSeasonRepository(),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.cycles = memory.NewCycleRepository(f.themes, f.seasons)

	ctx := context.Background()
	if err := f.clubs.UpsertClub(ctx, club.Club{ID: fixtureClubID, Name: "Midnight Reel", OwnerID: fixtureDirector}); err != nil {
		t.Fatalf("seed club: %v", err)
	}
	for _, userID := range memberIDs {
		role := club.RoleMember
		if userID == fixtureDirector {
			role = club.RoleDirector
		}
		member := club.Member{
			ClubID:   fixtureClubID,
			UserID:   userID,
			Nickname: userID,
			Role:     role,
			IsActive: true,
		}
		if err := f.clubs.UpsertMember(ctx, member); err != nil {
			t.Fatalf("seed member %s: %v", userID, err)
		}
	}
	if err := f.themes.Add(ctx, theme.Theme{
		ID:          "theme-1",
		ClubID:      fixtureClubID,
		Text:        "One-location thrillers",
		SubmittedBy: fixtureDirector,
		SubmittedAt: f.now.Add(-24 * time.Hour),
	}); err != nil {
		t.Fatalf("seed theme: %v", err)
	}

	logger := logging.NewNop()
	lookup := &stubMovieLookup{byID: map[int64]MovieMetadata{
		101: {MovieID: 101, Title: "Rope", ReleaseYear: 1948},
		102: {MovieID: 102, Title: "Locke", ReleaseYear: 2013},
		103: {MovieID: 103, Title: "Buried", ReleaseYear: 2010},
	}}

	nowFn := func() time.Time { return f.now }
	f.seasonSvc = NewSeasonService(f.clubs, f.cycles, f.seasons, logger)
	f.seasonSvc.now = nowFn
	f.cycleSvc = NewCycleService(f.clubs, f.themes, f.cycles, &seqIDGenerator{prefix: "cy"}, logger)
	f.cycleSvc.now = nowFn
	f.cycleSvc.pickTheme = func(int) int { return 0 }
	f.nominationSvc = NewNominationService(f.clubs, f.cycles, lookup, &seqIDGenerator{prefix: "nom"}, logger)
	f.nominationSvc.now = nowFn
	f.ballotSvc = NewBallotService(f.clubs, f.cycles, logger)
	f.watchSvc = NewWatchService(f.clubs, f.cycles, logger)
	f.watchSvc.now = nowFn

	return f
}

func (f *clubFixture) advance(t *testing.T, cycleID string) cycle.Cycle {
	t.Helper()
	out, err := f.cycleSvc.Advance(context.Background(), cycleID, fixtureDirector, AdvanceNext)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	return out
}

func TestCycleService_Start(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana", "ben", "cleo")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if started.Phase != cycle.PhaseNomination {
		t.Fatalf("expected nomination phase, got %s", started.Phase)
	}
	if started.Number != 1 || started.SeasonYear != 2026 {
		t.Fatalf("unexpected numbering: %+v", started)
	}
	if started.ThemeText != "One-location thrillers" {
		t.Fatalf("unexpected theme: %q", started.ThemeText)
	}

	drawn, _, err := f.themes.GetByID(ctx, started.ThemeID)
	if err != nil {
		t.Fatalf("get theme: %v", err)
	}
	if !drawn.Used() || drawn.UsedCycleID != started.ID {
		t.Fatalf("theme should be consumed by the new cycle: %+v", drawn)
	}

	if _, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector); !errors.Is(err, cycle.ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestCycleService_Start_RequiresDirector(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana", "ben")

	if _, err := f.cycleSvc.Start(context.Background(), fixtureClubID, "ben"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCycleService_Start_NoThemes(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana")
	ctx := context.Background()

	// Consume the only theme with a first cycle, run it to idle, then
	// try to start again.
	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if _, err := f.nominationSvc.Nominate(ctx, started.ID, "ana", 101); err != nil {
		t.Fatalf("nominate: %v", err)
	}
	for range 4 {
		f.advance(t, started.ID)
	}

	if _, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector); !errors.Is(err, cycle.ErrNoThemesAvailable) {
		t.Fatalf("expected ErrNoThemesAvailable, got %v", err)
	}
}

func TestCycleService_Advance_RequiresFullNominations(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana", "ben", "cleo")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if _, err := f.nominationSvc.Nominate(ctx, started.ID, "ana", 101); err != nil {
		t.Fatalf("nominate: %v", err)
	}

	_, err = f.cycleSvc.Advance(ctx, started.ID, fixtureDirector, AdvanceNext)
	if !errors.Is(err, cycle.ErrIncompleteNominations) {
		t.Fatalf("expected ErrIncompleteNominations, got %v", err)
	}
}

func TestCycleService_Advance_RejectsExcessNominations(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana", "ben")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	for userID, movieID := range map[string]int64{"ana": 101, "ben": 102} {
		if _, err := f.nominationSvc.Nominate(ctx, started.ID, userID, movieID); err != nil {
			t.Fatalf("nominate %s: %v", userID, err)
		}
	}

	// ben leaves after nominating: the counts no longer line up, so the
	// phase must not advance on a stale roster.
	if err := f.clubs.UpsertMember(ctx, club.Member{
		ClubID: fixtureClubID, UserID: "ben", Nickname: "ben", Role: club.RoleMember, IsActive: false,
	}); err != nil {
		t.Fatalf("deactivate member: %v", err)
	}

	_, err = f.cycleSvc.Advance(ctx, started.ID, fixtureDirector, AdvanceNext)
	if !errors.Is(err, cycle.ErrIncompleteNominations) {
		t.Fatalf("expected ErrIncompleteNominations for excess nominations, got %v", err)
	}
}

func TestCycleService_Advance_PreviousClampsAtNomination(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	stepped, err := f.cycleSvc.Advance(ctx, started.ID, fixtureDirector, AdvancePrevious)
	if err != nil {
		t.Fatalf("previous at floor should be a no-op, got %v", err)
	}
	if stepped.Phase != cycle.PhaseNomination {
		t.Fatalf("expected clamped nomination phase, got %s", stepped.Phase)
	}
}

func TestCycleService_Advance_SeedsWatchProgressIdempotently(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana", "ben", "cleo")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	for userID, movieID := range map[string]int64{"ana": 101, "ben": 102, "cleo": 103} {
		if _, err := f.nominationSvc.Nominate(ctx, started.ID, userID, movieID); err != nil {
			t.Fatalf("nominate %s: %v", userID, err)
		}
	}

	f.advance(t, started.ID)

	// Mark one extra movie watched, bounce back to nomination, and
	// re-enter watching: the earlier progress must survive.
	rows, err := f.cycles.ListWatchProgress(ctx, started.ID)
	if err != nil {
		t.Fatalf("list watch progress: %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("expected 3x3 seeded rows, got %d", len(rows))
	}
	preWatched := 0
	for _, row := range rows {
		if row.Watched {
			preWatched++
		}
	}
	if preWatched != 3 {
		t.Fatalf("expected each member's own nomination pre-watched, got %d", preWatched)
	}

	var foreign cycle.WatchProgress
	for _, row := range rows {
		if row.UserID == "ana" && !row.Watched {
			foreign = row
			break
		}
	}
	if err := f.watchSvc.MarkWatched(ctx, started.ID, foreign.UserID, foreign.NominationID, nil, ""); err != nil {
		t.Fatalf("mark watched: %v", err)
	}

	if _, err := f.cycleSvc.Advance(ctx, started.ID, fixtureDirector, AdvancePrevious); err != nil {
		t.Fatalf("step back: %v", err)
	}
	f.advance(t, started.ID)

	rows, err = f.cycles.ListWatchProgress(ctx, started.ID)
	if err != nil {
		t.Fatalf("list watch progress: %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("re-entry must not duplicate rows, got %d", len(rows))
	}
	watched := 0
	for _, row := range rows {
		if row.Watched {
			watched++
		}
	}
	if watched != 4 {
		t.Fatalf("re-entry must not reset progress, got %d watched", watched)
	}
}

func TestCycleService_FullLifecycle(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana", "ben", "cleo")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	nominationByUser := make(map[string]cycle.Nomination, 3)
	for _, entry := range []struct {
		userID  string
		movieID int64
	}{
		{"ana", 101}, {"ben", 102}, {"cleo", 103},
	} {
		n, err := f.nominationSvc.Nominate(ctx, started.ID, entry.userID, entry.movieID)
		if err != nil {
			t.Fatalf("nominate %s: %v", entry.userID, err)
		}
		nominationByUser[entry.userID] = n
	}

	if got := f.advance(t, started.ID); got.Phase != cycle.PhaseWatching {
		t.Fatalf("expected watching, got %s", got.Phase)
	}
	if got := f.advance(t, started.ID); got.Phase != cycle.PhaseRanking {
		t.Fatalf("expected ranking, got %s", got.Phase)
	}

	submit := func(userID string, first, second string, guesses []GuessInput) {
		t.Helper()
		rankings := []RankingInput{
			{NominationID: nominationByUser[first].ID, Position: 1},
			{NominationID: nominationByUser[second].ID, Position: 2},
		}
		if err := f.ballotSvc.Submit(ctx, started.ID, userID, guesses, rankings); err != nil {
			t.Fatalf("submit ballot %s: %v", userID, err)
		}
	}
	submit("ana", "ben", "cleo", []GuessInput{
		{NominationID: nominationByUser["ben"].ID, GuessedNominatorID: "ben"},
		{NominationID: nominationByUser["cleo"].ID, GuessedNominatorID: "ben"},
	})
	submit("ben", "cleo", "ana", []GuessInput{
		{NominationID: nominationByUser["ana"].ID, GuessedNominatorID: "ana"},
		{NominationID: nominationByUser["cleo"].ID, GuessedNominatorID: "cleo"},
	})
	submit("cleo", "ben", "ana", nil)

	scored := f.advance(t, started.ID)
	if scored.Phase != cycle.PhaseResults {
		t.Fatalf("expected results, got %s", scored.Phase)
	}
	if scored.WinnerUserID != "ben" || scored.WinnerNominationID != nominationByUser["ben"].ID {
		t.Fatalf("unexpected winner: %+v", scored)
	}
	if scored.WinnerPoints != 4 {
		t.Fatalf("expected winner points (3-1)*2=4, got %d", scored.WinnerPoints)
	}

	view, err := f.cycleSvc.GetResults(ctx, started.ID)
	if err != nil {
		t.Fatalf("GetResults error: %v", err)
	}
	if len(view.Results) != 3 || view.Results[0].UserID != "ben" {
		t.Fatalf("unexpected stored results: %+v", view.Results)
	}

	standings, err := f.seasonSvc.ListStandings(ctx, fixtureClubID, 2026)
	if err != nil {
		t.Fatalf("ListStandings error: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("expected 3 standings rows, got %d", len(standings))
	}
	if standings[0].UserID != "ben" || standings[0].TotalPoints != 4 || standings[0].CyclesWon != 1 || standings[0].Position != 1 {
		t.Fatalf("unexpected leader: %+v", standings[0])
	}

	done := f.advance(t, started.ID)
	if done.Phase != cycle.PhaseIdle {
		t.Fatalf("expected idle, got %s", done.Phase)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completed timestamp")
	}

	// Past the end is a clamped no-op; stepping back is refused.
	again := f.advance(t, started.ID)
	if again.Phase != cycle.PhaseIdle {
		t.Fatalf("expected idle no-op, got %s", again.Phase)
	}
	if _, err := f.cycleSvc.Advance(ctx, started.ID, fixtureDirector, AdvancePrevious); !errors.Is(err, cycle.ErrCycleCompleted) {
		t.Fatalf("expected ErrCycleCompleted, got %v", err)
	}
}

// flakyResultsRepo fails SaveResults a set number of times before
// delegating, simulating a store outage at the scoring boundary.
type flakyResultsRepo struct {
	cycle.Repository
	failures int
}

func (r *flakyResultsRepo) SaveResults(ctx context.Context, c cycle.Cycle, results []cycle.Result, stats []season.Delta) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("results store offline")
	}
	return r.Repository.SaveResults(ctx, c, results, stats)
}

func TestCycleService_Advance_ScoringFailureLeavesRanking(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana", "ben")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	anaNom, err := f.nominationSvc.Nominate(ctx, started.ID, "ana", 101)
	if err != nil {
		t.Fatalf("nominate ana: %v", err)
	}
	benNom, err := f.nominationSvc.Nominate(ctx, started.ID, "ben", 102)
	if err != nil {
		t.Fatalf("nominate ben: %v", err)
	}
	f.advance(t, started.ID)
	f.advance(t, started.ID)
	if err := f.ballotSvc.Submit(ctx, started.ID, "ana", nil, []RankingInput{{NominationID: benNom.ID, Position: 1}}); err != nil {
		t.Fatalf("submit ana: %v", err)
	}
	if err := f.ballotSvc.Submit(ctx, started.ID, "ben", nil, []RankingInput{{NominationID: anaNom.ID, Position: 1}}); err != nil {
		t.Fatalf("submit ben: %v", err)
	}

	flaky := &flakyResultsRepo{Repository: f.cycles, failures: 1}
	flakySvc := NewCycleService(f.clubs, f.themes, flaky, &seqIDGenerator{prefix: "cy"}, logging.NewNop())
	flakySvc.now = func() time.Time { return f.now }

	if _, err := flakySvc.Advance(ctx, started.ID, fixtureDirector, AdvanceNext); err == nil {
		t.Fatal("expected advance to fail when results cannot be saved")
	}

	// Nothing may have moved: the cycle is still rankable and no stats
	// were folded.
	current, _, err := f.cycles.GetByID(ctx, started.ID)
	if err != nil {
		t.Fatalf("get cycle: %v", err)
	}
	if current.Phase != cycle.PhaseRanking {
		t.Fatalf("failed scoring must leave ranking, got %s", current.Phase)
	}
	if rows, _ := f.cycles.ListResults(ctx, started.ID); len(rows) != 0 {
		t.Fatalf("failed scoring must store no results, got %d", len(rows))
	}
	if rows, _ := f.seasons.ListByClubYear(ctx, fixtureClubID, 2026); len(rows) != 0 {
		t.Fatalf("failed scoring must fold no stats, got %d", len(rows))
	}

	// A retried advance scores normally and folds each bucket once.
	scored := f.advance(t, started.ID)
	if scored.Phase != cycle.PhaseResults {
		t.Fatalf("expected results after retry, got %s", scored.Phase)
	}
	rows, err := f.seasons.ListByClubYear(ctx, fixtureClubID, 2026)
	if err != nil {
		t.Fatalf("list season stats: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 stats rows after retry, got %d", len(rows))
	}
	for _, row := range rows {
		if row.CyclesParticipated != 1 {
			t.Fatalf("retry must fold exactly once, got %+v", row)
		}
	}
}

func TestCycleService_GetCurrent(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana", "ben")
	ctx := context.Background()

	if _, err := f.cycleSvc.GetCurrent(ctx, fixtureClubID, "ana"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound with no active cycle, got %v", err)
	}

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if _, err := f.nominationSvc.Nominate(ctx, started.ID, "ana", 101); err != nil {
		t.Fatalf("nominate: %v", err)
	}

	detail, err := f.cycleSvc.GetCurrent(ctx, fixtureClubID, "ana")
	if err != nil {
		t.Fatalf("GetCurrent error: %v", err)
	}
	if detail.Cycle.ID != started.ID || len(detail.Nominations) != 1 || detail.BallotSubmitted {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}
