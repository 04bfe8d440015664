package models

import (
	"strings"
	"time"
)

// Message kinds. Kind is fixed at creation from the attachment's media
// category; only text messages are editable.
const (
	KindText  = "text"
	KindImage = "image"
	KindFile  = "file"
)

// MaxContentLength caps message content size in characters.
const MaxContentLength = 2000

// Message represents a channel message.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChannelID int       `db:"channel_id" json:"channel_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Kind      string    `db:"kind" json:"kind"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	IsEdited  bool      `db:"is_edited" json:"is_edited"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Attachments are stored outside the message row and loaded on demand.
	Attachments []Attachment `db:"-" json:"attachments,omitempty"`
}

// Attachment is an opaque blob reference attached to a message.
type Attachment struct {
	ID        int    `db:"id" json:"-"`
	MessageID int    `db:"message_id" json:"-"`
	FileURL   string `db:"file_url" json:"file_url"`
	FileName  string `db:"file_name" json:"file_name"`
	FileType  string `db:"file_type" json:"file_type"`
	FileSize  int64  `db:"file_size" json:"file_size"`
	Position  int    `db:"position" json:"-"`
}

// ReadReceipt marks a message as read by a user. Entries are only ever added.
type ReadReceipt struct {
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ReadAt    time.Time `db:"read_at" json:"read_at"`
}

// KindForMediaType maps an attachment media type to a message kind.
func KindForMediaType(mediaType string) string {
	if strings.HasPrefix(mediaType, "image/") {
		return KindImage
	}
	return KindFile
}
