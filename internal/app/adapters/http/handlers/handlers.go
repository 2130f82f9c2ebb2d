package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"streamview/internal/app/adapters/chat"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

const (
	queryTimeout     = 5 * time.Second
	defaultFrequentN = 10
)

type Handlers struct {
	log     logger.Logger
	session ports.SessionPort
}

func New(log logger.Logger, session ports.SessionPort) *Handlers {
	return &Handlers{
		log:     log,
		session: session,
	}
}

type stateResponse struct {
	State    string              `json:"state"`
	Channels []ports.ChannelInfo `json:"channels"`
}

type sendRequest struct {
	Text string `json:"text" binding:"required"`
}

type pauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

func (h *Handlers) State(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	infos, err := h.session.Channels(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, stateResponse{
		State:    h.session.State().String(),
		Channels: infos,
	})
}

func (h *Handlers) Join(c *gin.Context) {
	h.session.Join(c.Param("channel"))
	c.Status(http.StatusAccepted)
}

func (h *Handlers) Leave(c *gin.Context) {
	h.session.Leave(c.Param("channel"))
	c.Status(http.StatusAccepted)
}

func (h *Handlers) Messages(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	msgs, err := h.session.Messages(ctx, c.Param("channel"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handlers) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "details": err.Error()})
		return
	}

	if err := h.session.Send(req.Text, c.Param("channel")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *Handlers) Pause(c *gin.Context) {
	var req pauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body", "details": err.Error()})
		return
	}

	h.session.SetPaused(c.Param("channel"), *req.Paused)
	c.Status(http.StatusAccepted)
}

func (h *Handlers) FrequentEmotes(c *gin.Context) {
	n := defaultFrequentN
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_n"})
			return
		}
		n = v
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	names, err := h.session.FrequentEmotes(ctx, n)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emotes": names})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrNotJoined):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_joined"})
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong), errors.Is(err, chat.ErrInvalidChannel):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_message", "details": err.Error()})
	case errors.Is(err, chat.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable"})
	default:
		h.log.Error("Request failed", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
