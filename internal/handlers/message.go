package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/middleware"
	"messaging-service/internal/models"
	"messaging-service/internal/service"
	"messaging-service/internal/storage"
	"messaging-service/internal/telemetry"
)

// MessageHandler exposes channel messaging endpoints.
type MessageHandler struct {
	svc         *service.Service
	attachments *storage.DiskStore
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(svc *service.Service, attachments *storage.DiskStore, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{svc: svc, attachments: attachments, audit: audit}
}

// SendMessage handles POST /channels/:channel_id/messages.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	channelID, identity, ok := channelScope(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), channelID, identity, req.Content)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "message sent")
	c.JSON(http.StatusCreated, msg)
}

// SendAttachment handles POST /channels/:channel_id/messages/file with a
// multipart upload.
func (h *MessageHandler) SendAttachment(c *gin.Context) {
	channelID, identity, ok := channelScope(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	att, err := h.attachments.Save(fileHeader.Filename, f)
	if err != nil {
		log.Printf("attachment store failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	msg, err := h.svc.SendAttachment(c.Request.Context(), channelID, identity, c.PostForm("content"), att)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "attachment message sent")
	c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET /channels/:channel_id/messages with cursor
// pagination (?before=&limit=).
func (h *MessageHandler) ListMessages(c *gin.Context) {
	channelID, identity, ok := channelScope(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	page, err := h.svc.ListPage(c.Request.Context(), channelID, identity, c.Query("before"), limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SearchMessages handles GET /channels/:channel_id/messages/search?query=.
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	channelID, identity, ok := channelScope(c)
	if !ok {
		return
	}

	msgs, err := h.svc.Search(c.Request.Context(), channelID, identity, c.Query("query"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// EditMessage handles PUT /channels/:channel_id/messages/:message_id.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	_, messageID, identity, ok := messageScope(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.svc.Edit(c.Request.Context(), messageID, identity, req.Content)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "message edited")
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage handles DELETE /channels/:channel_id/messages/:message_id.
// Delete is soft and sender-only.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	_, messageID, identity, ok := messageScope(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), messageID, identity); err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "message deleted")
	c.Status(http.StatusNoContent)
}

// MarkRead handles POST /channels/:channel_id/read and returns the number of
// newly marked messages.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	channelID, identity, ok := channelScope(c)
	if !ok {
		return
	}

	count, err := h.svc.MarkRead(c.Request.Context(), channelID, identity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": count})
}

// UnreadCount handles GET /channels/:channel_id/unread.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	channelID, identity, ok := channelScope(c)
	if !ok {
		return
	}

	count, err := h.svc.UnreadCount(c.Request.Context(), channelID, identity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *MessageHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func channelScope(c *gin.Context) (int, models.Identity, bool) {
	channelID, err := strconv.Atoi(c.Param("channel_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel id"})
		return 0, models.Identity{}, false
	}
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return 0, models.Identity{}, false
	}
	return channelID, identity, true
}

func messageScope(c *gin.Context) (int, int, models.Identity, bool) {
	channelID, identity, ok := channelScope(c)
	if !ok {
		return 0, 0, models.Identity{}, false
	}
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, 0, models.Identity{}, false
	}
	return channelID, messageID, identity, true
}
