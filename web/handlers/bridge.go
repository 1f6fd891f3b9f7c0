package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voicemail-stt/internal/app/overlay"
)

// BridgeHandler exposes the overlay session to the UI-wiring layer.
type BridgeHandler struct {
	session *overlay.Session
	hub     *overlay.Hub
	logger  *zap.SugaredLogger
}

// NewBridgeHandler creates a handler around one session.
func NewBridgeHandler(session *overlay.Session, hub *overlay.Hub, logger *zap.SugaredLogger) *BridgeHandler {
	return &BridgeHandler{
		session: session,
		hub:     hub,
		logger:  logger,
	}
}

type mutationRequest struct {
	HTML string `json:"html" binding:"required"`
}

// PostMutation ingests a host DOM snapshot and arms the debounced re-scan.
func (h *BridgeHandler) PostMutation(c *gin.Context) {
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "html is required"})
		return
	}
	h.session.OnHostMutation(req.HTML)
	c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
}

// PostTranscription requests a transcription for one voicemail. force=true
// discards any cached result and recomputes.
func (h *BridgeHandler) PostTranscription(c *gin.Context) {
	messageID := c.Param("message_id")
	force := c.Query("force") == "true"

	rec, ok := h.session.RecordByID(messageID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown voicemail"})
		return
	}

	go func() {
		if err := h.session.RequestTranscription(context.Background(), rec, force); err != nil {
			h.logger.Warnw("transcription request failed", "message_id", messageID, "error", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "requested", "message_id": messageID})
}

// GetVoicemails returns the current record snapshot in fetch order.
func (h *BridgeHandler) GetVoicemails(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.session.Voicemails()})
}

// GetTranscriptions returns all completed transcriptions.
func (h *BridgeHandler) GetTranscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.session.Cache().Completed()})
}

// GetJobs returns the jobs currently being polled.
func (h *BridgeHandler) GetJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.session.ActiveJobs()})
}

// PostReload refreshes the voicemail list and sweeps for existing
// transcriptions.
func (h *BridgeHandler) PostReload(c *gin.Context) {
	if err := h.session.Reload(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	go h.session.SweepExisting(context.Background())
	c.JSON(http.StatusOK, gin.H{"count": len(h.session.Voicemails())})
}

// GetEvents streams transcription updates as server-sent events.
func (h *BridgeHandler) GetEvents(c *gin.Context) {
	ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(ch)

	c.Stream(func(w io.Writer) bool {
		select {
		case update, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("transcription", update)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
