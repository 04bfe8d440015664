package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrNotMember       = errors.New("not a channel member")
)

// ChannelRepository is the membership authority consumed by the messaging
// service. Channel CRUD itself lives in the channel subsystem.
type ChannelRepository interface {
	GetChannel(ctx context.Context, channelID int) (models.Channel, error)
	IsMember(ctx context.Context, channelID, userID int) (bool, error)
	MemberRole(ctx context.Context, channelID, userID int) (string, error)
}

// ChannelRepo is a sqlx implementation of ChannelRepository.
type ChannelRepo struct {
	db *sqlx.DB
}

// NewChannelRepo constructs a ChannelRepo.
func NewChannelRepo(db *sqlx.DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

// GetChannel fetches a channel by id.
func (r *ChannelRepo) GetChannel(ctx context.Context, channelID int) (models.Channel, error) {
	var channel models.Channel
	err := r.db.GetContext(ctx, &channel,
		`SELECT id, name, description, type, creator_id, is_private, created_at FROM channels WHERE id=$1`,
		channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Channel{}, ErrChannelNotFound
	}
	return channel, err
}

// IsMember checks whether the user belongs to the channel.
func (r *ChannelRepo) IsMember(ctx context.Context, channelID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM channel_members WHERE channel_id=$1 AND user_id=$2)`,
		channelID, userID)
	return exists, err
}

// MemberRole returns the user's role in the channel.
func (r *ChannelRepo) MemberRole(ctx context.Context, channelID, userID int) (string, error) {
	var role string
	err := r.db.GetContext(ctx, &role,
		`SELECT role FROM channel_members WHERE channel_id=$1 AND user_id=$2`,
		channelID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotMember
	}
	return role, err
}
