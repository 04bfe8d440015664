package models

import "time"

// Channel member roles managed by the channel subsystem. The messaging
// service reads roles for authorization only.
const (
	RoleAdmin      = "admin"
	RoleModerator  = "moderator"
	RoleMember     = "member"
	RoleRestricted = "restricted"
)

// Channel is a named scope for messages and membership.
type Channel struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Type        string    `db:"type" json:"type"`
	CreatorID   int       `db:"creator_id" json:"creator_id"`
	IsPrivate   bool      `db:"is_private" json:"is_private"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ChannelMember ties a user to a channel with a role.
type ChannelMember struct {
	ChannelID int       `db:"channel_id" json:"channel_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
}

// Identity is the verified caller identity attached by the auth layer.
// The messaging service trusts it and never re-verifies credentials.
type Identity struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
