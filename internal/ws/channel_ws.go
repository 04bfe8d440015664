package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/middleware"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/service"
	"messaging-service/internal/telemetry"
)

// messagingService is the slice of the messaging service the command loop
// dispatches to.
type messagingService interface {
	AuthorizeJoin(ctx context.Context, channelID, userID int) (string, error)
	MarkRead(ctx context.Context, channelID int, user models.Identity) (int, error)
}

// Command is a typed inbound client event on the websocket.
type Command struct {
	Action    string `json:"action"`
	ChannelID int    `json:"channel_id"`
}

// Client command actions.
const (
	ActionJoin   = "join_channel"
	ActionLeave  = "leave_channel"
	ActionTyping = "typing"
	ActionRead   = "read"
)

// ChannelWSHandler upgrades client connections and runs their command loop.
type ChannelWSHandler struct {
	hub       *Hub
	svc       messagingService
	typing    *TypingDebouncer
	audit     *telemetry.AuditEmitter
	jwtSecret string
}

// NewChannelWSHandler constructs a ChannelWSHandler.
func NewChannelWSHandler(hub *Hub, svc messagingService, typing *TypingDebouncer, audit *telemetry.AuditEmitter, jwtSecret string) *ChannelWSHandler {
	return &ChannelWSHandler{hub: hub, svc: svc, typing: typing, audit: audit, jwtSecret: jwtSecret}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, upgrades the connection and registers
// it with the hub. Rooms are only joined through explicit commands; the
// server never auto-subscribes a connection.
func (h *ChannelWSHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token != "" {
		token = trimBearer(token)
	} else {
		token = c.Query("token")
	}

	identity, err := middleware.ParseToken(h.jwtSecret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		Identity:    identity,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Register(conn, info)
	observability.IncWSActive()

	userID := int64(identity.UserID)
	h.emitAudit(ctx, "INFO", "ws connected", info.RequestID, &userID)

	go h.readLoop(conn, info)
}

func (h *ChannelWSHandler) readLoop(conn *websocket.Conn, info ConnInfo) {
	defer func() {
		h.hub.Disconnect(conn)
		conn.Close()
		observability.DecWSActive()

		userID := int64(info.Identity.UserID)
		h.emitAudit(context.Background(), "INFO", "ws disconnected", info.RequestID, &userID)
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error conn=%s: %v", info.ConnID, err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			h.hub.SendTo(conn, models.Event{Type: models.EventError, Error: "malformed command"})
			continue
		}
		h.dispatch(conn, info, cmd)
	}
}

func (h *ChannelWSHandler) dispatch(conn Conn, info ConnInfo, cmd Command) {
	ctx := context.Background()
	identity := info.Identity

	switch cmd.Action {
	case ActionJoin:
		role, err := h.svc.AuthorizeJoin(ctx, cmd.ChannelID, identity.UserID)
		if err != nil {
			h.hub.SendTo(conn, commandError(cmd, err))
			return
		}
		h.hub.Join(conn, cmd.ChannelID)
		h.hub.SendTo(conn, models.Event{
			Type:      models.EventJoined,
			ChannelID: cmd.ChannelID,
			UserID:    identity.UserID,
			Role:      role,
		})

	case ActionLeave:
		h.hub.Leave(conn, cmd.ChannelID)
		h.hub.SendTo(conn, models.Event{
			Type:      models.EventLeft,
			ChannelID: cmd.ChannelID,
			UserID:    identity.UserID,
		})

	case ActionTyping:
		// typing skips the store; joined-state implies the membership check
		// done at join time
		if !h.hub.Joined(conn, cmd.ChannelID) {
			h.hub.SendTo(conn, models.Event{Type: models.EventError, ChannelID: cmd.ChannelID, Error: "not joined"})
			return
		}
		if !h.typing.Allow(cmd.ChannelID, identity.UserID) {
			return
		}
		h.hub.BroadcastExcept(cmd.ChannelID, info.ConnID, models.Event{
			Type:      models.EventTyping,
			ChannelID: cmd.ChannelID,
			UserID:    identity.UserID,
			Username:  identity.Username,
		})

	case ActionRead:
		if _, err := h.svc.MarkRead(ctx, cmd.ChannelID, identity); err != nil {
			h.hub.SendTo(conn, commandError(cmd, err))
		}

	default:
		h.hub.SendTo(conn, models.Event{Type: models.EventError, Error: "unknown action"})
	}
}

func (h *ChannelWSHandler) emitAudit(ctx context.Context, level, text, requestID string, userID *int64) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(ctx, level, text, requestID, userID)
}

func commandError(cmd Command, err error) models.Event {
	reason := "internal error"
	switch {
	case errors.Is(err, service.ErrNotFound):
		reason = "channel not found"
	case errors.Is(err, service.ErrForbidden):
		reason = "not a channel member"
	case errors.Is(err, service.ErrValidation):
		reason = "invalid command"
	}
	return models.Event{Type: models.EventError, ChannelID: cmd.ChannelID, Error: reason}
}

func trimBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return header
}
