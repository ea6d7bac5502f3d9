package usecase

import (
	"sort"

	"github.com/reelclub/movie-club/internal/domain/cycle"
)

// pointsPerRankStep is the multiplier of the points formula:
// points = (active members - final rank) * pointsPerRankStep.
const pointsPerRankStep = 2

// computeCycleResults turns a closed ranking phase into result rows,
// one per nomination that received at least one ranking. Nominations
// nobody ranked produce no row and no points. The returned slice is
// ordered by final rank; the winner, when any nomination was ranked,
// is the first element.
func computeCycleResults(
	c cycle.Cycle,
	nominations []cycle.Nomination,
	rankings []cycle.Ranking,
	guesses []cycle.Guess,
	activeMemberCount int,
) []cycle.Result {
	ownerByNomination := make(map[string]string, len(nominations))
	nominationByID := make(map[string]cycle.Nomination, len(nominations))
	for _, n := range nominations {
		ownerByNomination[n.ID] = n.UserID
		nominationByID[n.ID] = n
	}

	type tally struct {
		sum   int
		votes int
	}
	tallies := make(map[string]*tally, len(nominations))
	for _, r := range rankings {
		owner, known := ownerByNomination[r.NominationID]
		if !known || owner == r.RankerID {
			// Self-ranks are rejected at intake; re-check here so a bad
			// row can never influence scoring.
			continue
		}
		t, ok := tallies[r.NominationID]
		if !ok {
			t = &tally{}
			tallies[r.NominationID] = t
		}
		t.sum += r.Position
		t.votes++
	}

	scored := make([]cycle.Result, 0, len(tallies))
	for nominationID, t := range tallies {
		n := nominationByID[nominationID]
		scored = append(scored, cycle.Result{
			CycleID:       c.ID,
			UserID:        n.UserID,
			NominationID:  nominationID,
			AverageRank:   float64(t.sum) / float64(t.votes),
			VotesReceived: t.votes,
		})
	}

	// Ascending by average rank; ties go to the earlier nomination so
	// the order is deterministic across recomputes.
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.AverageRank != b.AverageRank {
			return a.AverageRank < b.AverageRank
		}
		na, nb := nominationByID[a.NominationID], nominationByID[b.NominationID]
		if !na.SubmittedAt.Equal(nb.SubmittedAt) {
			return na.SubmittedAt.Before(nb.SubmittedAt)
		}
		return a.NominationID < b.NominationID
	})

	accuracyByUser := guessAccuracyByUser(guesses)
	for idx := range scored {
		scored[idx].FinalRank = idx + 1
		scored[idx].PointsEarned = (activeMemberCount - scored[idx].FinalRank) * pointsPerRankStep
		scored[idx].GuessAccuracy = accuracyByUser[scored[idx].UserID]
	}

	return scored
}

func guessAccuracyByUser(guesses []cycle.Guess) map[string]float64 {
	correct := make(map[string]int)
	total := make(map[string]int)
	for _, g := range guesses {
		total[g.GuesserID]++
		if g.IsCorrect {
			correct[g.GuesserID]++
		}
	}

	out := make(map[string]float64, len(total))
	for userID, made := range total {
		if made == 0 {
			continue
		}
		out[userID] = float64(correct[userID]) / float64(made) * 100
	}

	return out
}
