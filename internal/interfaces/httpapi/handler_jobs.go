package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/issue-lottery/internal/usecase"
)

type drawJobRequest struct {
	Repository string `json:"repository" validate:"omitempty,max=200,contains=/"`
}

type drawJobAcceptedDTO struct {
	Status     string `json:"status"`
	Repository string `json:"repository,omitempty"`
}

func (h *Handler) RunDrawJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDrawJob")
	defer span.End()

	if h.draws == nil {
		writeError(ctx, w, fmt.Errorf("%w: draw scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeDrawJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	req.Repository = strings.TrimSpace(req.Repository)
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.ensureRepositoryConfigured(ctx, req.Repository); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.draws.Trigger(ctx, usecase.DrawRunInput{Repository: req.Repository}); err != nil {
		h.logger.WarnContext(ctx, "trigger draw job failed", "repository", req.Repository, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "draw job accepted", "repository", req.Repository)
	writeSuccess(ctx, w, http.StatusAccepted, drawJobAcceptedDTO{Status: "accepted", Repository: req.Repository})
}

func (h *Handler) ensureRepositoryConfigured(ctx context.Context, repository string) error {
	if repository == "" || h.configs == nil {
		return nil
	}
	configs, err := h.configs.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: load lottery config: %v", usecase.ErrDependencyUnavailable, err)
	}
	for _, cfg := range configs {
		if strings.EqualFold(cfg.Repository, repository) {
			return nil
		}
	}
	return fmt.Errorf("%w: repository %s is not configured", usecase.ErrNotFound, repository)
}

func decodeDrawJobRequest(r *http.Request) (drawJobRequest, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return drawJobRequest{}, fmt.Errorf("%w: read payload: %v", usecase.ErrInvalidInput, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return drawJobRequest{}, nil
	}

	decoder := sonic.ConfigDefault.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	var req drawJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return drawJobRequest{}, nil
		}
		return drawJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return req, nil
}
