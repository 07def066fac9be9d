package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/marksync/internal/pkg/errcode"
	"github.com/xxxsen/marksync/internal/pkg/response"
	"github.com/xxxsen/marksync/internal/state"
	"github.com/xxxsen/marksync/internal/syncer"
)

type SyncHandler struct {
	engine *syncer.Engine
	repo   *state.Repo
}

func NewSyncHandler(engine *syncer.Engine, repo *state.Repo) *SyncHandler {
	return &SyncHandler{engine: engine, repo: repo}
}

// Trigger starts a run in the background. The run slot is claimed before
// the reply, so "started" is only ever reported to one caller at a time;
// a trigger while a run is active is rejected, matching the periodic path.
func (h *SyncHandler) Trigger(c *gin.Context) {
	if err := h.engine.StartAsync(context.Background()); err != nil {
		response.Error(c, errcode.ErrSyncRunning, "sync already running")
		return
	}
	response.Success(c, gin.H{"status": "started"})
}

func (h *SyncHandler) Status(c *gin.Context) {
	runState, summary, lastEnd := h.engine.Status()
	out := gin.H{"state": runState}
	if summary != nil {
		out["last_summary"] = summary
	}
	if !lastEnd.IsZero() {
		out["last_run_finished"] = lastEnd.UTC().Format(time.RFC3339)
	}
	if h.repo != nil {
		if last, err := h.repo.LastSync(c.Request.Context()); err == nil && last != nil {
			out["last_sync"] = last.UTC().Format(time.RFC3339)
		}
	}
	response.Success(c, out)
}

func (h *SyncHandler) Runs(c *gin.Context) {
	limit := uint(20)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid limit")
			return
		}
		limit = uint(parsed)
	}
	runs, err := h.repo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, errcode.ErrInternal, "list runs failed")
		return
	}
	response.Success(c, gin.H{"runs": runs})
}
