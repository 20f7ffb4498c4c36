package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/hibernation"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/memory"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/engine"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/monitoring"
)

const requestTimeout = 5 * time.Second

// Engine is the part of the tracker the API serves.
type Engine interface {
	Entries(ctx context.Context) ([]engine.EntrySnapshot, error)
	Entry(ctx context.Context, eid string) (engine.EntrySnapshot, error)
	State(ctx context.Context) (engine.State, error)
	Kill(ctx context.Context, mode string) (int, error)
	Activate(ctx context.Context, eid string) error
	Close(ctx context.Context, eid string) error
	ConsumeUrgency(ctx context.Context, eid string) (int, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	engine  Engine
	metrics *monitoring.Metrics
	log     *zap.Logger
	started time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(eng Engine, metrics *monitoring.Metrics, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{engine: eng, metrics: metrics, log: log.Named("http"), started: time.Now()}
}

// KillRequest is the body of POST /api/kill.
type KillRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// Health handles health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// ListEntries returns the app entries with their leaves.
func (h *Handlers) ListEntries(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	entries, err := h.engine.Entries(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// GetEntry returns one entry.
func (h *Handlers) GetEntry(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	entry, err := h.engine.Entry(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetState returns the global flags.
func (h *Handlers) GetState(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	state, err := h.engine.State(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Kill terminates windows by mode.
func (h *Handlers) Kill(c *gin.Context) {
	var req KillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	n, err := h.engine.Kill(ctx, req.Mode)
	if err != nil && n == 0 {
		h.fail(c, err)
		return
	}
	resp := gin.H{"mode": req.Mode, "killed": n}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// ActivateEntry brings an entry to the front.
func (h *Handlers) ActivateEntry(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.engine.Activate(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": c.Param("id")})
}

// CloseEntry closes an entry.
func (h *Handlers) CloseEntry(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.engine.Close(ctx, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": c.Param("id")})
}

// ConsumeUrgency stops an entry from blinking.
func (h *Handlers) ConsumeUrgency(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	n, err := h.engine.ConsumeUrgency(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "consumed": n})
}

// MetricsSnapshot returns the JSON metrics snapshot.
func (h *Handlers) MetricsSnapshot(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownEntry), errors.Is(err, window.ErrNotTracked):
		return http.StatusNotFound
	case errors.Is(err, memory.ErrUnknownKillMode):
		return http.StatusBadRequest
	case errors.Is(err, hibernation.ErrNoService), errors.Is(err, hibernation.ErrNoTarget), errors.Is(err, hibernation.ErrNotLive):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
