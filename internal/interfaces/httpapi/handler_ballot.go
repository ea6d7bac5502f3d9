package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/reelclub/movie-club/internal/usecase"
)

type submitNominationRequest struct {
	MovieID int64 `json:"movieId" validate:"required,gt=0"`
}

type markWatchedRequest struct {
	Rating *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
	Notes  string `json:"notes,omitempty" validate:"max=2000"`
}

type ballotGuessRequest struct {
	NominationID       string `json:"nominationId" validate:"required"`
	GuessedNominatorID string `json:"guessedNominatorId" validate:"required"`
}

type ballotRankingRequest struct {
	NominationID string `json:"nominationId" validate:"required"`
	Position     int    `json:"position" validate:"required,min=1"`
}

type submitBallotRequest struct {
	Guesses  []ballotGuessRequest   `json:"guesses" validate:"dive"`
	Rankings []ballotRankingRequest `json:"rankings" validate:"required,min=1,dive"`
}

func (h *Handler) SubmitNomination(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitNomination")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req submitNominationRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	cycleID := r.PathValue("cycleID")
	nomination, err := h.nominationService.Nominate(ctx, cycleID, principal.UserID, req.MovieID)
	if err != nil {
		h.logger.WarnContext(ctx, "submit nomination failed", "cycle_id", cycleID, "user_id", principal.UserID, "movie_id", req.MovieID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, nominationToDTO(nomination))
}

func (h *Handler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MarkWatched")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req markWatchedRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	cycleID := r.PathValue("cycleID")
	nominationID := r.PathValue("nominationID")
	if err := h.watchService.MarkWatched(ctx, cycleID, principal.UserID, nominationID, req.Rating, req.Notes); err != nil {
		h.logger.WarnContext(ctx, "mark watched failed", "cycle_id", cycleID, "user_id", principal.UserID, "nomination_id", nominationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "watched"})
}

func (h *Handler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitBallot")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req submitBallotRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	guesses := make([]usecase.GuessInput, 0, len(req.Guesses))
	for _, g := range req.Guesses {
		guesses = append(guesses, usecase.GuessInput{
			NominationID:       g.NominationID,
			GuessedNominatorID: g.GuessedNominatorID,
		})
	}
	rankings := make([]usecase.RankingInput, 0, len(req.Rankings))
	for _, item := range req.Rankings {
		rankings = append(rankings, usecase.RankingInput{
			NominationID: item.NominationID,
			Position:     item.Position,
		})
	}

	cycleID := r.PathValue("cycleID")
	if err := h.ballotService.Submit(ctx, cycleID, principal.UserID, guesses, rankings); err != nil {
		h.logger.WarnContext(ctx, "submit ballot failed", "cycle_id", cycleID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, map[string]string{"status": "submitted"})
}
