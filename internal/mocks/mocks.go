package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type ChannelRepositoryMock struct {
	mock.Mock
}

func (m *ChannelRepositoryMock) GetChannel(ctx context.Context, channelID int) (models.Channel, error) {
	args := m.Called(ctx, channelID)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *ChannelRepositoryMock) IsMember(ctx context.Context, channelID, userID int) (bool, error) {
	args := m.Called(ctx, channelID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChannelRepositoryMock) MemberRole(ctx context.Context, channelID, userID int) (string, error) {
	args := m.Called(ctx, channelID, userID)
	return args.String(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, channelID, senderID int, content, kind string, attachments []models.Attachment) (models.Message, error) {
	args := m.Called(ctx, channelID, senderID, content, kind, attachments)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Edit(ctx context.Context, messageID, senderID int, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID, senderID int) error {
	args := m.Called(ctx, messageID, senderID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, channelID, userID int) (int, error) {
	args := m.Called(ctx, channelID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) ListPage(ctx context.Context, channelID int, before *repositories.Cursor, limit int) ([]models.Message, error) {
	args := m.Called(ctx, channelID, before, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Search(ctx context.Context, channelID int, query string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, channelID, query, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, channelID, userID int) (int, error) {
	args := m.Called(ctx, channelID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) AttachmentsFor(ctx context.Context, messageIDs []int) (map[int][]models.Attachment, error) {
	args := m.Called(ctx, messageIDs)
	var atts map[int][]models.Attachment
	if val := args.Get(0); val != nil {
		atts = val.(map[int][]models.Attachment)
	}
	return atts, args.Error(1)
}

var _ repositories.ChannelRepository = (*ChannelRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
