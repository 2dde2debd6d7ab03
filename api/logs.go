package api

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/m-mizutani/goerr/v2"

	"github.com/plandraft/plandraft/logstore"
)

const defaultLogLimit = 100

type logsResponse struct {
	Logs  []logstore.Entry `json:"logs"`
	Total int              `json:"total"`
}

// Logs returns stored log entries matching the query parameters.
// GET /api/v1/logs
func (h *Handler) Logs(c context.Context, ctx *app.RequestContext) {
	q, err := logQueryFromParams(ctx)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultLogLimit
	}

	entries, total := h.store.Query(q)
	if entries == nil {
		entries = []logstore.Entry{}
	}
	ctx.JSON(consts.StatusOK, logsResponse{Logs: entries, Total: total})
}

// ExportLogs downloads the matching log entries as a JSONL attachment.
// GET /api/v1/logs/export
func (h *Handler) ExportLogs(c context.Context, ctx *app.RequestContext) {
	q, err := logQueryFromParams(ctx)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := h.store.ExportJSONL(&buf, q); err != nil {
		h.logger.Error("log export failed", "error", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "log export failed"})
		return
	}

	filename := fmt.Sprintf("plandraft-logs-%s.jsonl", time.Now().Format("20060102-150405"))
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	ctx.Data(consts.StatusOK, "application/x-ndjson", buf.Bytes())
}

func logQueryFromParams(ctx *app.RequestContext) (logstore.Query, error) {
	q := logstore.Query{
		SessionID: ctx.Query("sessionId"),
		RequestID: ctx.Query("requestId"),
		MinLevel:  logstore.ParseLevel(ctx.Query("level")),
	}

	if category := ctx.Query("category"); category != "" {
		q.Categories = []string{category}
	}
	if event := ctx.Query("event"); event != "" {
		q.Events = []string{event}
	}

	if limit := ctx.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return q, goerr.New("invalid limit", goerr.V("limit", limit))
		}
		q.Limit = n
	}
	if offset := ctx.Query("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return q, goerr.New("invalid offset", goerr.V("offset", offset))
		}
		q.Offset = n
	}

	if start := ctx.Query("start"); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return q, goerr.Wrap(err, "invalid start time", goerr.V("start", start))
		}
		q.Start = t
	}
	if end := ctx.Query("end"); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return q, goerr.Wrap(err, "invalid end time", goerr.V("end", end))
		}
		q.End = t
	}

	return q, nil
}
