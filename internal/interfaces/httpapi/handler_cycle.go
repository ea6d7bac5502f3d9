package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/reelclub/movie-club/internal/usecase"
)

type advanceCycleRequest struct {
	Direction string `json:"direction" validate:"required,oneof=next previous"`
}

func (h *Handler) StartCycle(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartCycle")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	clubID := r.PathValue("clubID")
	started, err := h.cycleService.Start(ctx, clubID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "start cycle failed", "club_id", clubID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, cycleToDTO(started))
}

func (h *Handler) AdvanceCycle(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvanceCycle")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req advanceCycleRequest
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

	direction, err := usecase.ParseAdvanceDirection(req.Direction)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	cycleID := r.PathValue("cycleID")
	advanced, err := h.cycleService.Advance(ctx, cycleID, principal.UserID, direction)
	if err != nil {
		h.logger.WarnContext(ctx, "advance cycle failed", "cycle_id", cycleID, "direction", req.Direction, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cycleToDTO(advanced))
}

func (h *Handler) GetCurrentCycle(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentCycle")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	clubID := r.PathValue("clubID")
	detail, err := h.cycleService.GetCurrent(ctx, clubID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "get current cycle failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	progress := make([]watchProgressDTO, 0, len(detail.WatchProgress))
	for _, p := range detail.WatchProgress {
		progress = append(progress, watchProgressToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, cycleDetailDTO{
		Cycle:           cycleToDTO(detail.Cycle),
		Nominations:     nominationsToDTO(detail.Nominations),
		WatchProgress:   progress,
		BallotSubmitted: detail.BallotSubmitted,
	})
}

func (h *Handler) GetCycleResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCycleResults")
	defer span.End()

	cycleID := r.PathValue("cycleID")
	results, err := h.cycleService.GetResults(ctx, cycleID)
	if err != nil {
		h.logger.WarnContext(ctx, "get cycle results failed", "cycle_id", cycleID, "error", err)
		writeError(ctx, w, err)
		return
	}

	rows := make([]resultDTO, 0, len(results.Results))
	for _, row := range results.Results {
		rows = append(rows, resultToDTO(row))
	}

	writeSuccess(ctx, w, http.StatusOK, cycleResultsDTO{
		Cycle:       cycleToDTO(results.Cycle),
		Nominations: nominationsToDTO(results.Nominations),
		Results:     rows,
	})
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	clubID := r.PathValue("clubID")

	year := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: year must be an integer", usecase.ErrInvalidInput))
			return
		}
		year = parsed
	}

	standings, err := h.seasonService.ListStandings(ctx, clubID, year)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "club_id", clubID, "year", year, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]standingDTO, 0, len(standings))
	for _, s := range standings {
		items = append(items, standingToDTO(s))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
