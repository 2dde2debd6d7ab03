// Package api exposes the generation, validation and log query endpoints
// over HTTP.
package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/plandraft/plandraft"
	"github.com/plandraft/plandraft/geometry"
	"github.com/plandraft/plandraft/logstore"
	"github.com/plandraft/plandraft/vision"
)

// Handler carries the wired components behind the HTTP surface.
type Handler struct {
	loop     *plandraft.Loop
	selector *geometry.Selector
	reviewer *vision.Reviewer
	store    *logstore.Store
	logger   *slog.Logger

	usdPer1KTokens float64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithReviewer enables the visual validation endpoint and the post-run
// review pass.
func WithReviewer(reviewer *vision.Reviewer) HandlerOption {
	return func(h *Handler) {
		h.reviewer = reviewer
	}
}

// WithCostRate sets the price used for review cost estimates.
func WithCostRate(usdPer1KTokens float64) HandlerOption {
	return func(h *Handler) {
		h.usdPer1KTokens = usdPer1KTokens
	}
}

// NewHandler wires the HTTP surface around the generation loop.
func NewHandler(loop *plandraft.Loop, selector *geometry.Selector, store *logstore.Store, logger *slog.Logger, options ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{
		loop:     loop,
		selector: selector,
		store:    store,
		logger:   logger,
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

type generateRequest struct {
	Prompt          string   `json:"prompt"`
	SuccessCriteria []string `json:"successCriteria,omitempty"`
	MaxIterations   int      `json:"maxIterations,omitempty"`
	UseMock         bool     `json:"useMock,omitempty"`
}

type generateResponse struct {
	Success bool                        `json:"success"`
	Result  *plandraft.GenerationResult `json:"result,omitempty"`
	Error   string                      `json:"error,omitempty"`
}

// Generate runs the feedback loop for one prompt.
// POST /api/v1/generate
func (h *Handler) Generate(c context.Context, ctx *app.RequestContext) {
	if h.loop == nil {
		ctx.JSON(consts.StatusServiceUnavailable, generateResponse{Error: "generation is not configured"})
		return
	}

	var req generateRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, generateResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		ctx.JSON(consts.StatusBadRequest, generateResponse{Error: "prompt is required"})
		return
	}
	if req.MaxIterations < 0 {
		ctx.JSON(consts.StatusBadRequest, generateResponse{Error: "maxIterations must be positive"})
		return
	}

	executor, err := h.selector.ForRequest(c, req.UseMock)
	if err != nil {
		h.logger.Error("failed to select tool executor", "error", err)
		ctx.JSON(consts.StatusInternalServerError, generateResponse{Error: "failed to prepare tool executor"})
		return
	}

	opts := []plandraft.Option{
		plandraft.WithExecutor(executor),
	}
	if req.MaxIterations > 0 {
		opts = append(opts, plandraft.WithMaxIterations(req.MaxIterations))
	}
	if len(req.SuccessCriteria) > 0 {
		opts = append(opts, plandraft.WithSuccessCriteria(req.SuccessCriteria...))
	}

	result, err := h.loop.Run(c, req.Prompt, opts...)
	if err != nil {
		// The partial history still goes back to the client.
		h.logger.Error("generation run failed", "error", err)
		ctx.JSON(consts.StatusOK, generateResponse{Success: false, Result: result, Error: result.Error})
		return
	}

	ctx.JSON(consts.StatusOK, generateResponse{Success: result.Success, Result: result})
}

type validateRequest struct {
	// Images are base64-encoded rendered plan views.
	Images   []string `json:"images"`
	MimeType string   `json:"mimeType,omitempty"`
}

type validateResponse struct {
	Feedback *vision.Feedback    `json:"feedback,omitempty"`
	Cost     vision.CostEstimate `json:"cost"`
	Error    string              `json:"error,omitempty"`
}

// Validate submits rendered plan views for visual review.
// POST /api/v1/validate
func (h *Handler) Validate(c context.Context, ctx *app.RequestContext) {
	if h.reviewer == nil {
		ctx.JSON(consts.StatusServiceUnavailable, validateResponse{Error: "visual validation is not configured"})
		return
	}

	var req validateRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, validateResponse{Error: "invalid request body"})
		return
	}
	if len(req.Images) == 0 {
		ctx.JSON(consts.StatusBadRequest, validateResponse{Error: "at least one image is required"})
		return
	}

	mimeType := plandraft.ImageMimeTypePNG
	switch req.MimeType {
	case "", string(plandraft.ImageMimeTypePNG):
	case string(plandraft.ImageMimeTypeJPEG):
		mimeType = plandraft.ImageMimeTypeJPEG
	case string(plandraft.ImageMimeTypeWebP):
		mimeType = plandraft.ImageMimeTypeWebP
	default:
		ctx.JSON(consts.StatusBadRequest, validateResponse{Error: "unsupported image mime type"})
		return
	}

	images := make([]plandraft.Image, 0, len(req.Images))
	for _, encoded := range req.Images {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, validateResponse{Error: "images must be base64 encoded"})
			return
		}
		images = append(images, plandraft.NewImage(mimeType, data))
	}

	cost := vision.EstimateCost(len(images), h.usdPer1KTokens)

	feedback, err := h.reviewer.Review(c, images...)
	if err != nil {
		h.logger.Error("visual review failed", "error", err)
		ctx.JSON(consts.StatusBadGateway, validateResponse{Cost: cost, Error: "visual review failed"})
		return
	}

	ctx.JSON(consts.StatusOK, validateResponse{Feedback: feedback, Cost: cost})
}

// Health reports service liveness.
// GET /health
func (h *Handler) Health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}
