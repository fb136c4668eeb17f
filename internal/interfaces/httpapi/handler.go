package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/platform/logging"
	"github.com/riskibarqy/issue-lottery/internal/usecase"
)

// DrawTrigger starts a draw run in the background.
type DrawTrigger interface {
	Trigger(ctx context.Context, input usecase.DrawRunInput) error
	NextRun() time.Time
}

type Handler struct {
	draws     DrawTrigger
	configs   lottery.ConfigRepository
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(draws DrawTrigger, configs lottery.ConfigRepository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		draws:     draws,
		configs:   configs,
		logger:    logger,
		validator: validator.New(),
	}
}

type healthDTO struct {
	Status     string     `json:"status"`
	NextDrawAt *time.Time `json:"next_draw_at,omitempty"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	out := healthDTO{Status: "ok"}
	if h.draws != nil {
		if next := h.draws.NextRun(); !next.IsZero() {
			next = next.UTC()
			out.NextDrawAt = &next
		}
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
