package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/reelclub/movie-club/internal/platform/logging"
	"github.com/reelclub/movie-club/internal/usecase"
)

type Handler struct {
	cycleService      *usecase.CycleService
	nominationService *usecase.NominationService
	watchService      *usecase.WatchService
	ballotService     *usecase.BallotService
	seasonService     *usecase.SeasonService
	rebuildWorkers    int
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	cycleService *usecase.CycleService,
	nominationService *usecase.NominationService,
	watchService *usecase.WatchService,
	ballotService *usecase.BallotService,
	seasonService *usecase.SeasonService,
	rebuildWorkers int,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		cycleService:      cycleService,
		nominationService: nominationService,
		watchService:      watchService,
		ballotService:     ballotService,
		seasonService:     seasonService,
		rebuildWorkers:    rebuildWorkers,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
