package postgres

import "time"

type cycleTableModel struct {
	ID                 int64      `db:"id"`
	PublicID           string     `db:"public_id"`
	ClubID             string     `db:"club_public_id"`
	ThemeID            string     `db:"theme_public_id"`
	ThemeText          string     `db:"theme_text"`
	Phase              string     `db:"phase"`
	Number             int        `db:"cycle_number"`
	SeasonYear         int        `db:"season_year"`
	StartedAt          time.Time  `db:"started_at"`
	CompletedAt        *time.Time `db:"completed_at"`
	WinnerUserID       *string    `db:"winner_user_id"`
	WinnerNominationID *string    `db:"winner_nomination_public_id"`
	WinnerPoints       int        `db:"winner_points"`
}

type cycleInsertModel struct {
	PublicID   string    `db:"public_id"`
	ClubID     string    `db:"club_public_id"`
	ThemeID    string    `db:"theme_public_id"`
	ThemeText  string    `db:"theme_text"`
	Phase      string    `db:"phase"`
	Number     int       `db:"cycle_number"`
	SeasonYear int       `db:"season_year"`
	StartedAt  time.Time `db:"started_at"`
}

type nominationTableModel struct {
	ID          int64     `db:"id"`
	PublicID    string    `db:"public_id"`
	CycleID     string    `db:"cycle_public_id"`
	UserID      string    `db:"user_id"`
	MovieID     int64     `db:"movie_id"`
	MovieTitle  string    `db:"movie_title"`
	PosterPath  string    `db:"poster_path"`
	ReleaseYear int       `db:"release_year"`
	SubmittedAt time.Time `db:"submitted_at"`
}

type nominationInsertModel struct {
	PublicID    string    `db:"public_id"`
	CycleID     string    `db:"cycle_public_id"`
	UserID      string    `db:"user_id"`
	MovieID     int64     `db:"movie_id"`
	MovieTitle  string    `db:"movie_title"`
	PosterPath  string    `db:"poster_path"`
	ReleaseYear int       `db:"release_year"`
	SubmittedAt time.Time `db:"submitted_at"`
}

type watchProgressTableModel struct {
	ID           int64      `db:"id"`
	CycleID      string     `db:"cycle_public_id"`
	UserID       string     `db:"user_id"`
	NominationID string     `db:"nomination_public_id"`
	Watched      bool       `db:"watched"`
	WatchedAt    *time.Time `db:"watched_at"`
	Rating       *int       `db:"rating"`
	Notes        string     `db:"notes"`
}

type guessTableModel struct {
	ID                 int64  `db:"id"`
	CycleID            string `db:"cycle_public_id"`
	GuesserID          string `db:"guesser_user_id"`
	NominationID       string `db:"nomination_public_id"`
	GuessedNominatorID string `db:"guessed_nominator_id"`
	IsCorrect          bool   `db:"is_correct"`
}

type rankingTableModel struct {
	ID           int64  `db:"id"`
	CycleID      string `db:"cycle_public_id"`
	RankerID     string `db:"ranker_user_id"`
	NominationID string `db:"nomination_public_id"`
	Position     int    `db:"rank_position"`
}

type resultTableModel struct {
	ID            int64   `db:"id"`
	CycleID       string  `db:"cycle_public_id"`
	UserID        string  `db:"user_id"`
	NominationID  string  `db:"nomination_public_id"`
	AverageRank   float64 `db:"average_rank"`
	FinalRank     int     `db:"final_rank"`
	PointsEarned  int     `db:"points_earned"`
	GuessAccuracy float64 `db:"guess_accuracy"`
	VotesReceived int     `db:"votes_received"`
}
