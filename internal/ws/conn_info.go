package ws

import (
	"time"

	"messaging-service/internal/models"
)

// ConnInfo captures a live connection's identity and request metadata.
type ConnInfo struct {
	ConnID      string
	Identity    models.Identity
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
