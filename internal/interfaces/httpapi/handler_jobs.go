package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/reelclub/movie-club/internal/usecase"
)

type rebuildStandingsRequest struct {
	ClubID     string `json:"clubId" validate:"required"`
	MaxWorkers int    `json:"maxWorkers,omitempty" validate:"omitempty,min=1,max=32"`
}

// RunRebuildStandingsJob recomputes every season stats row of a club
// from stored cycle results. It is reserved for operators behind the
// internal job token.
func (h *Handler) RunRebuildStandingsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRebuildStandingsJob")
	defer span.End()

	var req rebuildStandingsRequest
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

	workers := req.MaxWorkers
	if workers <= 0 {
		workers = h.rebuildWorkers
	}

	result, err := h.seasonService.Rebuild(ctx, req.ClubID, workers)
	if err != nil {
		h.logger.WarnContext(ctx, "rebuild standings job failed", "club_id", req.ClubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "rebuild standings job completed",
		"club_id", result.ClubID,
		"season_count", result.SeasonCount,
		"row_count", result.RowCount,
		"duration_ms", result.DurationMs,
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}
