package httpapi

import (
	"time"

	"github.com/reelclub/movie-club/internal/domain/cycle"
	"github.com/reelclub/movie-club/internal/domain/season"
)

type cycleDTO struct {
	ID                 string `json:"id"`
	ClubID             string `json:"clubId"`
	ThemeID            string `json:"themeId"`
	ThemeText          string `json:"themeText"`
	Phase              string `json:"phase"`
	Number             int    `json:"number"`
	SeasonYear         int    `json:"seasonYear"`
	StartedAtUTC       string `json:"startedAtUtc"`
	CompletedAtUTC     string `json:"completedAtUtc,omitempty"`
	WinnerUserID       string `json:"winnerUserId,omitempty"`
	WinnerNominationID string `json:"winnerNominationId,omitempty"`
	WinnerPoints       int    `json:"winnerPoints,omitempty"`
}

type nominationDTO struct {
	ID             string `json:"id"`
	UserID         string `json:"userId"`
	MovieID        int64  `json:"movieId"`
	MovieTitle     string `json:"movieTitle"`
	PosterPath     string `json:"posterPath,omitempty"`
	ReleaseYear    int    `json:"releaseYear,omitempty"`
	SubmittedAtUTC string `json:"submittedAtUtc"`
}

type watchProgressDTO struct {
	UserID       string `json:"userId"`
	NominationID string `json:"nominationId"`
	Watched      bool   `json:"watched"`
	WatchedAtUTC string `json:"watchedAtUtc,omitempty"`
	Rating       *int   `json:"rating,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type cycleDetailDTO struct {
	Cycle           cycleDTO           `json:"cycle"`
	Nominations     []nominationDTO    `json:"nominations"`
	WatchProgress   []watchProgressDTO `json:"watchProgress"`
	BallotSubmitted bool               `json:"ballotSubmitted"`
}

type resultDTO struct {
	UserID        string  `json:"userId"`
	NominationID  string  `json:"nominationId"`
	AverageRank   float64 `json:"averageRank"`
	FinalRank     int     `json:"finalRank"`
	PointsEarned  int     `json:"pointsEarned"`
	GuessAccuracy float64 `json:"guessAccuracy"`
	VotesReceived int     `json:"votesReceived"`
}

type cycleResultsDTO struct {
	Cycle       cycleDTO        `json:"cycle"`
	Nominations []nominationDTO `json:"nominations"`
	Results     []resultDTO     `json:"results"`
}

type standingDTO struct {
	Position           int     `json:"position"`
	UserID             string  `json:"userId"`
	Year               int     `json:"year"`
	CyclesParticipated int     `json:"cyclesParticipated"`
	CyclesWon          int     `json:"cyclesWon"`
	TotalPoints        int     `json:"totalPoints"`
	AveragePoints      float64 `json:"averagePoints"`
}

func cycleToDTO(c cycle.Cycle) cycleDTO {
	return cycleDTO{
		ID:                 c.ID,
		ClubID:             c.ClubID,
		ThemeID:            c.ThemeID,
		ThemeText:          c.ThemeText,
		Phase:              string(c.Phase),
		Number:             c.Number,
		SeasonYear:         c.SeasonYear,
		StartedAtUTC:       c.StartedAt.UTC().Format(time.RFC3339),
		CompletedAtUTC:     formatOptionalTime(c.CompletedAt),
		WinnerUserID:       c.WinnerUserID,
		WinnerNominationID: c.WinnerNominationID,
		WinnerPoints:       c.WinnerPoints,
	}
}

func nominationToDTO(n cycle.Nomination) nominationDTO {
	return nominationDTO{
		ID:             n.ID,
		UserID:         n.UserID,
		MovieID:        n.MovieID,
		MovieTitle:     n.MovieTitle,
		PosterPath:     n.PosterPath,
		ReleaseYear:    n.ReleaseYear,
		SubmittedAtUTC: n.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func nominationsToDTO(items []cycle.Nomination) []nominationDTO {
	out := make([]nominationDTO, 0, len(items))
	for _, n := range items {
		out = append(out, nominationToDTO(n))
	}
	return out
}

func watchProgressToDTO(p cycle.WatchProgress) watchProgressDTO {
	return watchProgressDTO{
		UserID:       p.UserID,
		NominationID: p.NominationID,
		Watched:      p.Watched,
		WatchedAtUTC: formatOptionalTime(p.WatchedAt),
		Rating:       p.Rating,
		Notes:        p.Notes,
	}
}

func resultToDTO(r cycle.Result) resultDTO {
	return resultDTO{
		UserID:        r.UserID,
		NominationID:  r.NominationID,
		AverageRank:   r.AverageRank,
		FinalRank:     r.FinalRank,
		PointsEarned:  r.PointsEarned,
		GuessAccuracy: r.GuessAccuracy,
		VotesReceived: r.VotesReceived,
	}
}

func standingToDTO(s season.Standing) standingDTO {
	return standingDTO{
		Position:           s.Position,
		UserID:             s.UserID,
		Year:               s.Year,
		CyclesParticipated: s.CyclesParticipated,
		CyclesWon:          s.CyclesWon,
		TotalPoints:        s.TotalPoints,
		AveragePoints:      s.AveragePoints,
	}
}

func formatOptionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
