package geometry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/plandraft/plandraft"
)

const (
	// DefaultBaseURL is the geometry server address used when none is configured.
	DefaultBaseURL = "http://localhost:3001"

	// healthTimeout bounds the health probe that gates the HTTP executor.
	healthTimeout = 2 * time.Second

	defaultRequestTimeout = 30 * time.Second
)

// HTTPExecutor forwards tool calls to the geometry server. The server owns
// the CAD document; each successful call mutates it and the state snapshot is
// read back from the response.
type HTTPExecutor struct {
	client  *resty.Client
	baseURL string
	tools   *toolset
}

var _ plandraft.ToolExecutor = &HTTPExecutor{}

// HTTPOption configures an HTTPExecutor.
type HTTPOption func(*HTTPExecutor)

// WithRequestTimeout sets the per-call timeout for forwarded tool calls.
func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(e *HTTPExecutor) {
		e.client.SetTimeout(d)
	}
}

// NewHTTPExecutor creates an executor that forwards calls to the geometry
// server at baseURL. An empty baseURL falls back to DefaultBaseURL.
func NewHTTPExecutor(baseURL string, options ...HTTPOption) (*HTTPExecutor, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tools, err := newToolset()
	if err != nil {
		return nil, err
	}

	executor := &HTTPExecutor{
		client:  resty.New().SetBaseURL(baseURL).SetTimeout(defaultRequestTimeout),
		baseURL: baseURL,
		tools:   tools,
	}
	for _, opt := range options {
		opt(executor)
	}
	return executor, nil
}

// Healthy probes GET /health with a short timeout. The result gates executor
// selection once per request; it is not re-evaluated mid-loop.
func (e *HTTPExecutor) Healthy(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	resp, err := e.client.R().SetContext(probeCtx).Get("/health")
	if err != nil {
		return false
	}
	return resp.IsSuccess()
}

func (e *HTTPExecutor) Specs(ctx context.Context) ([]plandraft.ToolSpec, error) {
	return e.tools.specs, nil
}

type executeRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

type executeResponse struct {
	Success     bool           `json:"success"`
	Data        map[string]any `json:"data,omitempty"`
	Error       string         `json:"error,omitempty"`
	WhatChanged string         `json:"whatChanged,omitempty"`
	StateForLLM string         `json:"stateForLLM,omitempty"`
}

// Execute validates the call and forwards it to the geometry server. All
// failures, including transport errors, become StatusError results.
func (e *HTTPExecutor) Execute(ctx context.Context, call plandraft.ToolCall) plandraft.ToolResult {
	if err := e.tools.validate(call); err != nil {
		return errorResult(err)
	}

	var body executeResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(executeRequest{Tool: call.Name, Arguments: call.Arguments}).
		SetResult(&body).
		Post("/api/v1/execute")
	if err != nil {
		return plandraft.ToolResult{
			Status:  plandraft.StatusError,
			Message: fmt.Sprintf("geometry server call failed: %v", err),
		}
	}
	if resp.IsError() {
		msg := body.Error
		if msg == "" {
			msg = fmt.Sprintf("geometry server returned %s", resp.Status())
		}
		return plandraft.ToolResult{Status: plandraft.StatusError, Message: msg}
	}
	if !body.Success {
		msg := body.Error
		if msg == "" {
			msg = "geometry server rejected the call"
		}
		return plandraft.ToolResult{Status: plandraft.StatusError, Message: msg}
	}

	return plandraft.ToolResult{
		Status:      plandraft.StatusOK,
		Data:        body.Data,
		WhatChanged: body.WhatChanged,
		StateForLLM: body.StateForLLM,
	}
}

// Selector picks an executor once per generation request: the HTTP executor
// when the geometry server answers its health probe, otherwise a fresh
// in-memory fallback. The choice holds for the remainder of the request.
type Selector struct {
	http   *HTTPExecutor
	logger *slog.Logger
}

// NewSelector creates a selection policy around an optional HTTP executor.
// A nil executor means every request gets the in-memory fallback.
func NewSelector(httpExecutor *HTTPExecutor, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{http: httpExecutor, logger: logger}
}

// ForRequest returns the executor for one generation request. useMock forces
// the in-memory fallback regardless of backend health.
func (s *Selector) ForRequest(ctx context.Context, useMock bool) (plandraft.ToolExecutor, error) {
	if !useMock && s.http != nil {
		if s.http.Healthy(ctx) {
			return s.http, nil
		}
		s.logger.Warn("geometry server health probe failed, falling back to in-memory executor",
			"base_url", s.http.baseURL)
	}
	return NewMemoryExecutor()
}
