package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
)

// Broadcaster pushes a typed event to every live connection in a channel
// room. Delivery is fire-and-forget; failures stay inside the broadcaster.
type Broadcaster interface {
	Broadcast(channelID int, event models.Event)
}

// Service orchestrates the membership authority, the message store and the
// room broadcaster. Authorization and validation run before any store
// mutation; the store commit is the durability boundary, so a broadcast
// failure after a successful commit never fails the caller.
type Service struct {
	channels repositories.ChannelRepository
	messages repositories.MessageRepository
	hub      Broadcaster
}

// New builds a messaging Service.
func New(channels repositories.ChannelRepository, messages repositories.MessageRepository, hub Broadcaster) *Service {
	return &Service{channels: channels, messages: messages, hub: hub}
}

// Page is one page of messages with the cursor for the next (older) page.
type Page struct {
	Messages   []models.Message `json:"messages"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// Send validates and stores a text message, then broadcasts it to the
// channel room.
func (s *Service) Send(ctx context.Context, channelID int, sender models.Identity, content string) (models.Message, error) {
	if err := s.authorizeMember(ctx, channelID, sender.UserID); err != nil {
		return models.Message{}, err
	}
	if err := validateContent(content, false); err != nil {
		return models.Message{}, err
	}

	msg, err := s.messages.Append(ctx, channelID, sender.UserID, content, models.KindText, nil)
	if err != nil {
		return models.Message{}, err
	}
	observability.IncMessageOp("send")

	s.hub.Broadcast(channelID, models.Event{
		Type:      models.EventNewMessage,
		ChannelID: channelID,
		Message:   &msg,
		Username:  sender.Username,
	})
	return msg, nil
}

// SendAttachment stores an image or file message. Kind is derived from the
// attachment's media category; content defaults to the original file name.
func (s *Service) SendAttachment(ctx context.Context, channelID int, sender models.Identity, content string, att models.Attachment) (models.Message, error) {
	if err := s.authorizeMember(ctx, channelID, sender.UserID); err != nil {
		return models.Message{}, err
	}
	if att.FileURL == "" || att.FileName == "" {
		return models.Message{}, fmt.Errorf("%w: attachment descriptor incomplete", ErrValidation)
	}
	if content == "" {
		content = att.FileName
	}
	if err := validateContent(content, true); err != nil {
		return models.Message{}, err
	}

	kind := models.KindForMediaType(att.FileType)
	msg, err := s.messages.Append(ctx, channelID, sender.UserID, content, kind, []models.Attachment{att})
	if err != nil {
		return models.Message{}, err
	}
	observability.IncMessageOp("send_attachment")

	s.hub.Broadcast(channelID, models.Event{
		Type:      models.EventNewMessage,
		ChannelID: channelID,
		Message:   &msg,
		Username:  sender.Username,
	})
	return msg, nil
}

// Edit mutates content on the requester's own live text message and
// broadcasts the edited message.
func (s *Service) Edit(ctx context.Context, messageID int, requester models.Identity, content string) (models.Message, error) {
	if err := validateContent(content, false); err != nil {
		return models.Message{}, err
	}

	existing, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, fmt.Errorf("%w: message", ErrNotFound)
		}
		return models.Message{}, err
	}
	if existing.IsDeleted {
		return models.Message{}, fmt.Errorf("%w: message", ErrNotFound)
	}
	if existing.SenderID != requester.UserID {
		return models.Message{}, fmt.Errorf("%w: only the sender may edit", ErrForbidden)
	}
	if existing.Kind != models.KindText {
		return models.Message{}, fmt.Errorf("%w: only text messages can be edited", ErrInvalidState)
	}

	// preconditions repeat inside the UPDATE; a racing delete makes the
	// update miss and the loser observes NotFound
	msg, err := s.messages.Edit(ctx, messageID, requester.UserID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, fmt.Errorf("%w: message", ErrNotFound)
		}
		return models.Message{}, err
	}
	observability.IncMessageOp("edit")

	s.hub.Broadcast(msg.ChannelID, models.Event{
		Type:      models.EventMessageEdited,
		ChannelID: msg.ChannelID,
		Message:   &msg,
	})
	return msg, nil
}

// Delete soft-deletes the requester's own message and broadcasts the id to
// clients that may still display it.
func (s *Service) Delete(ctx context.Context, messageID int, requester models.Identity) error {
	existing, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("%w: message", ErrNotFound)
		}
		return err
	}
	if existing.IsDeleted {
		return fmt.Errorf("%w: message", ErrNotFound)
	}
	if existing.SenderID != requester.UserID {
		return fmt.Errorf("%w: only the sender may delete", ErrForbidden)
	}

	if err := s.messages.SoftDelete(ctx, messageID, requester.UserID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("%w: message", ErrNotFound)
		}
		return err
	}
	observability.IncMessageOp("delete")

	s.hub.Broadcast(existing.ChannelID, models.Event{
		Type:      models.EventMessageDeleted,
		ChannelID: existing.ChannelID,
		MessageID: messageID,
	})
	return nil
}

// MarkRead adds the user's read entry to every unread channel message and
// broadcasts a bulk read_update marker. Idempotent.
func (s *Service) MarkRead(ctx context.Context, channelID int, user models.Identity) (int, error) {
	if err := s.authorizeMember(ctx, channelID, user.UserID); err != nil {
		return 0, err
	}

	count, err := s.messages.MarkRead(ctx, channelID, user.UserID)
	if err != nil {
		return 0, err
	}

	s.hub.Broadcast(channelID, models.Event{
		Type:      models.EventReadUpdate,
		ChannelID: channelID,
		UserID:    user.UserID,
	})
	return count, nil
}

// UnreadCount returns how many live channel messages the user has not read.
func (s *Service) UnreadCount(ctx context.Context, channelID int, user models.Identity) (int, error) {
	if err := s.authorizeMember(ctx, channelID, user.UserID); err != nil {
		return 0, err
	}
	return s.messages.UnreadCount(ctx, channelID, user.UserID)
}

// ListPage returns one page of channel history, oldest first, restartable
// via the returned cursor.
func (s *Service) ListPage(ctx context.Context, channelID int, user models.Identity, before string, limit int) (Page, error) {
	if err := s.authorizeMember(ctx, channelID, user.UserID); err != nil {
		return Page{}, err
	}

	var cursor *repositories.Cursor
	if before != "" {
		parsed, err := repositories.ParseCursor(before)
		if err != nil {
			return Page{}, fmt.Errorf("%w: before cursor", ErrValidation)
		}
		cursor = &parsed
	}

	msgs, err := s.messages.ListPage(ctx, channelID, cursor, limit)
	if err != nil {
		return Page{}, err
	}
	if err := s.attachTo(ctx, msgs); err != nil {
		return Page{}, err
	}

	page := Page{Messages: msgs}
	if len(msgs) > 0 {
		oldest := msgs[0]
		page.NextCursor = repositories.Cursor{CreatedAt: oldest.CreatedAt, ID: oldest.ID}.String()
	}
	return page, nil
}

// Search finds live messages whose content contains the query,
// case-insensitive, newest first, bounded.
func (s *Service) Search(ctx context.Context, channelID int, user models.Identity, query string) ([]models.Message, error) {
	if err := s.authorizeMember(ctx, channelID, user.UserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}

	msgs, err := s.messages.Search(ctx, channelID, query, repositories.MaxPageSize)
	if err != nil {
		return nil, err
	}
	if err := s.attachTo(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// AuthorizeJoin checks channel existence and membership for a room join,
// returning the member's role.
func (s *Service) AuthorizeJoin(ctx context.Context, channelID, userID int) (string, error) {
	if _, err := s.channels.GetChannel(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrChannelNotFound) {
			return "", fmt.Errorf("%w: channel", ErrNotFound)
		}
		return "", err
	}
	role, err := s.channels.MemberRole(ctx, channelID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotMember) {
			return "", fmt.Errorf("%w: not a channel member", ErrForbidden)
		}
		return "", err
	}
	return role, nil
}

func (s *Service) authorizeMember(ctx context.Context, channelID, userID int) error {
	if _, err := s.channels.GetChannel(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrChannelNotFound) {
			return fmt.Errorf("%w: channel", ErrNotFound)
		}
		return err
	}
	member, err := s.channels.IsMember(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: not a channel member", ErrForbidden)
	}
	return nil
}

// attachTo loads attachments for non-text messages in place.
func (s *Service) attachTo(ctx context.Context, msgs []models.Message) error {
	withFiles := lo.Filter(msgs, func(m models.Message, _ int) bool {
		return m.Kind != models.KindText
	})
	if len(withFiles) == 0 {
		return nil
	}
	ids := lo.Map(withFiles, func(m models.Message, _ int) int { return m.ID })

	byMessage, err := s.messages.AttachmentsFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range msgs {
		if atts, ok := byMessage[msgs[i].ID]; ok {
			msgs[i].Attachments = atts
		}
	}
	return nil
}

func validateContent(content string, hasAttachment bool) error {
	if !hasAttachment && strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: message content or file is required", ErrValidation)
	}
	if len(content) > models.MaxContentLength {
		return fmt.Errorf("%w: content too long (max %d characters)", ErrValidation, models.MaxContentLength)
	}
	return nil
}
