package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/reelclub/movie-club/internal/domain/cycle"
)

// rankingFixture runs a 3-member cycle up to the ranking phase and
// returns the nominations by user.
func rankingFixture(t *testing.T) (*clubFixture, cycle.Cycle, map[string]cycle.Nomination) {
	t.Helper()

	f := newClubFixture(t, "ana", "ben", "cleo")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	byUser := make(map[string]cycle.Nomination, 3)
	for userID, movieID := range map[string]int64{"ana": 101, "ben": 102, "cleo": 103} {
		n, err := f.nominationSvc.Nominate(ctx, started.ID, userID, movieID)
		if err != nil {
			t.Fatalf("nominate %s: %v", userID, err)
		}
		byUser[userID] = n
	}
	f.advance(t, started.ID)
	ranking := f.advance(t, started.ID)
	if ranking.Phase != cycle.PhaseRanking {
		t.Fatalf("fixture expected ranking phase, got %s", ranking.Phase)
	}

	return f, ranking, byUser
}

func TestBallotService_Submit(t *testing.T) {
	t.Parallel()

	f, current, byUser := rankingFixture(t)
	ctx := context.Background()

	guesses := []GuessInput{
		{NominationID: byUser["ben"].ID, GuessedNominatorID: "ben"},
		{NominationID: byUser["cleo"].ID, GuessedNominatorID: "ben"},
		// Own nomination: dropped, not an error.
		{NominationID: byUser["ana"].ID, GuessedNominatorID: "cleo"},
	}
	rankings := []RankingInput{
		{NominationID: byUser["ben"].ID, Position: 1},
		{NominationID: byUser["cleo"].ID, Position: 2},
	}
	if err := f.ballotSvc.Submit(ctx, current.ID, "ana", guesses, rankings); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	stored, err := f.cycles.ListGuesses(ctx, current.ID)
	if err != nil {
		t.Fatalf("list guesses: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("own-nomination guess should be dropped, got %d stored", len(stored))
	}
	for _, g := range stored {
		wantCorrect := g.NominationID == byUser["ben"].ID
		if g.IsCorrect != wantCorrect {
			t.Fatalf("correctness fixed at write time, got %+v", g)
		}
	}

	submitted, err := f.cycles.HasBallot(ctx, current.ID, "ana")
	if err != nil {
		t.Fatalf("has ballot: %v", err)
	}
	if !submitted {
		t.Fatal("expected ballot recorded")
	}

	err = f.ballotSvc.Submit(ctx, current.ID, "ana", nil, rankings)
	if !errors.Is(err, cycle.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestBallotService_Submit_WrongPhase(t *testing.T) {
	t.Parallel()

	f := newClubFixture(t, "ana")
	ctx := context.Background()

	started, err := f.cycleSvc.Start(ctx, fixtureClubID, fixtureDirector)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	err = f.ballotSvc.Submit(ctx, started.ID, "ana", nil, []RankingInput{{NominationID: "n-1", Position: 1}})
	if !errors.Is(err, cycle.ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase in nomination, got %v", err)
	}
}

func TestBallotService_Submit_Validation(t *testing.T) {
	t.Parallel()

	f, current, byUser := rankingFixture(t)
	ctx := context.Background()

	err := f.ballotSvc.Submit(ctx, current.ID, "ana", nil, []RankingInput{
		{NominationID: "nope", Position: 1},
	})
	if !errors.Is(err, cycle.ErrUnknownNomination) {
		t.Fatalf("expected ErrUnknownNomination, got %v", err)
	}

	err = f.ballotSvc.Submit(ctx, current.ID, "ana", nil, []RankingInput{
		{NominationID: byUser["ana"].ID, Position: 1},
		{NominationID: byUser["ben"].ID, Position: 2},
	})
	if !errors.Is(err, cycle.ErrCannotRankOwnNomination) {
		t.Fatalf("expected ErrCannotRankOwnNomination, got %v", err)
	}

	err = f.ballotSvc.Submit(ctx, current.ID, "ana", nil, []RankingInput{
		{NominationID: byUser["ben"].ID, Position: 1},
		{NominationID: byUser["cleo"].ID, Position: 1},
	})
	if !errors.Is(err, cycle.ErrDuplicateRankPosition) {
		t.Fatalf("expected ErrDuplicateRankPosition, got %v", err)
	}

	err = f.ballotSvc.Submit(ctx, current.ID, "ana", nil, []RankingInput{
		{NominationID: byUser["ben"].ID, Position: 3},
		{NominationID: byUser["cleo"].ID, Position: 1},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for out-of-range position, got %v", err)
	}

	// A partial ballot is rejected: every rankable nomination gets a
	// position, there is no withholding ranks from rivals.
	err = f.ballotSvc.Submit(ctx, current.ID, "ana", nil, []RankingInput{
		{NominationID: byUser["ben"].ID, Position: 1},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for partial ranking, got %v", err)
	}

	// Validation failures must leave nothing behind.
	submitted, err := f.cycles.HasBallot(ctx, current.ID, "ana")
	if err != nil {
		t.Fatalf("has ballot: %v", err)
	}
	if submitted {
		t.Fatal("rejected submissions must not record a ballot")
	}
}

func TestBallotService_Submit_RequiresActiveMember(t *testing.T) {
	t.Parallel()

	f, current, byUser := rankingFixture(t)

	err := f.ballotSvc.Submit(context.Background(), current.ID, "stranger", nil, []RankingInput{
		{NominationID: byUser["ben"].ID, Position: 1},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
