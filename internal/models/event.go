package models

// Event types pushed to websocket clients subscribed to a channel room.
const (
	EventNewMessage     = "new_message"
	EventMessageEdited  = "message_edited"
	EventMessageDeleted = "message_deleted"
	EventTyping         = "typing"
	EventReadUpdate     = "read_update"
	EventJoined         = "joined"
	EventLeft           = "left"
	EventError          = "error"
)

// Event is the typed outbound payload broadcast to room members.
// message_deleted carries only the message id.
type Event struct {
	Type      string   `json:"type"`
	ChannelID int      `json:"channel_id,omitempty"`
	Message   *Message `json:"message,omitempty"`
	MessageID int      `json:"message_id,omitempty"`
	UserID    int      `json:"user_id,omitempty"`
	Username  string   `json:"username,omitempty"`
	Role      string   `json:"role,omitempty"`
	Error     string   `json:"error,omitempty"`
}
