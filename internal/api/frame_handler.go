package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/iec101-gateway/internal/gateway"
	"github.com/taoyao-code/iec101-gateway/internal/journal"
	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
	"github.com/taoyao-code/iec101-gateway/internal/session"
)

// FrameHandler 帧编解码与下发 API
type FrameHandler struct {
	sender   *gateway.Sender
	sessions *session.Manager
	journal  *journal.Journal
	logger   *zap.Logger
}

// NewFrameHandler journal 可为空
func NewFrameHandler(sender *gateway.Sender, sessions *session.Manager, j *journal.Journal, logger *zap.Logger) *FrameHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FrameHandler{sender: sender, sessions: sessions, journal: j, logger: logger}
}

type decodeRequest struct {
	Hex string `json:"hex" binding:"required"`
}

// Decode POST /api/v1/frames/decode
func (h *FrameHandler) Decode(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raw, err := decodeHex(req.Hex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d := h.sender.Codec().NewDecoder()
	n, st := d.Feed(raw)
	if st != iec101.StatusOK {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": st.String(), "consumed": n})
		return
	}
	f, _ := d.Frame()
	c.JSON(http.StatusOK, gin.H{
		"status":   st.String(),
		"consumed": n,
		"trailing": len(raw) - n,
		"frame":    viewOf(f, d.Raw()),
	})
}

// Encode POST /api/v1/frames/encode
func (h *FrameHandler) Encode(c *gin.Context) {
	f, ok := h.bindFrame(c)
	if !ok {
		return
	}
	raw, err := h.sender.Codec().Encode(f)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"frame": viewOf(f, raw)})
}

// Send POST /api/v1/links/:address/frames
func (h *FrameHandler) Send(c *gin.Context) {
	addr, err := strconv.ParseUint(c.Param("address"), 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link address"})
		return
	}
	f, ok := h.bindFrame(c)
	if !ok {
		return
	}
	raw, err := h.sender.Send(c.Request.Context(), iec101.Address(addr), f)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"frame": viewOf(f, raw)})
	case errors.Is(err, session.ErrLinkNotBound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrAddressMismatch),
		errors.Is(err, iec101.ErrAddressOverflow),
		errors.Is(err, iec101.ErrPayloadTooLong),
		errors.Is(err, iec101.ErrInvalidFrame):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Warn("send frame failed", zap.Uint64("address", addr), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// Recent GET /api/v1/frames/recent?limit=N
func (h *FrameHandler) Recent(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": journal.ErrNoReader.Error()})
		return
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	recs, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"frames": recs})
}

// Links GET /api/v1/links
func (h *FrameHandler) Links(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"links": h.sessions.Links(time.Now())})
}

func (h *FrameHandler) bindFrame(c *gin.Context) (iec101.Frame, bool) {
	var req FrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return iec101.Frame{}, false
	}
	f, err := req.Frame()
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, errBadRequest) {
			code = http.StatusBadRequest
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return iec101.Frame{}, false
	}
	return f, true
}
