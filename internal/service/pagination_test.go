package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// memoryMessageStore implements the read path of the repository over an
// in-memory slice so cursor chaining can be exercised end to end.
type memoryMessageStore struct {
	mocks.MessageRepositoryMock
	messages []models.Message
}

func (s *memoryMessageStore) ListPage(ctx context.Context, channelID int, before *repositories.Cursor, limit int) ([]models.Message, error) {
	limit = repositories.ClampPageSize(limit)

	var live []models.Message
	for _, m := range s.messages {
		if m.ChannelID != channelID || m.IsDeleted {
			continue
		}
		if before != nil && !olderThan(m, *before) {
			continue
		}
		live = append(live, m)
	}
	sort.Slice(live, func(i, j int) bool {
		if !live[i].CreatedAt.Equal(live[j].CreatedAt) {
			return live[i].CreatedAt.After(live[j].CreatedAt)
		}
		return live[i].ID > live[j].ID
	})
	if len(live) > limit {
		live = live[:limit]
	}
	for i, j := 0, len(live)-1; i < j; i, j = i+1, j-1 {
		live[i], live[j] = live[j], live[i]
	}
	return live, nil
}

func (s *memoryMessageStore) AttachmentsFor(ctx context.Context, messageIDs []int) (map[int][]models.Attachment, error) {
	return map[int][]models.Attachment{}, nil
}

func olderThan(m models.Message, before repositories.Cursor) bool {
	if m.CreatedAt.Equal(before.CreatedAt) {
		return m.ID < before.ID
	}
	return m.CreatedAt.Before(before.CreatedAt)
}

func TestListPageConcatenationReproducesFullRead(t *testing.T) {
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	store := &memoryMessageStore{}
	for i := 1; i <= 11; i++ {
		store.messages = append(store.messages, models.Message{
			ID:        i,
			ChannelID: 10,
			SenderID:  1,
			Content:   fmt.Sprintf("message %d", i),
			Kind:      models.KindText,
			IsDeleted: i%4 == 0, // 4 and 8 are soft-deleted
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	// equal timestamps must still order deterministically by id
	store.messages = append(store.messages,
		models.Message{ID: 12, ChannelID: 10, SenderID: 1, Content: "tie a", Kind: models.KindText, CreatedAt: base.Add(30 * time.Minute)},
		models.Message{ID: 13, ChannelID: 10, SenderID: 1, Content: "tie b", Kind: models.KindText, CreatedAt: base.Add(30 * time.Minute)},
	)

	channels := new(mocks.ChannelRepositoryMock)
	expectMember(channels, 10, alice.UserID, true)
	svc := New(channels, store, &recordingBroadcaster{})
	ctx := context.Background()

	full, err := svc.ListPage(ctx, 10, alice, "", repositories.MaxPageSize)
	require.NoError(t, err)
	require.Len(t, full.Messages, 11)

	// walk backward through history three at a time, newest page first
	var paged []models.Message
	cursor := ""
	for {
		page, err := svc.ListPage(ctx, 10, alice, cursor, 3)
		require.NoError(t, err)
		if len(page.Messages) == 0 {
			break
		}
		assert.LessOrEqual(t, len(page.Messages), 3)
		paged = append(append([]models.Message(nil), page.Messages...), paged...)
		cursor = page.NextCursor
	}

	require.Equal(t, len(full.Messages), len(paged))
	for i := range full.Messages {
		assert.Equal(t, full.Messages[i].ID, paged[i].ID)
		assert.Equal(t, full.Messages[i].Content, paged[i].Content)
	}

	// ascending order, deleted ids absent
	for i := 1; i < len(paged); i++ {
		prev, cur := paged[i-1], paged[i]
		less := prev.CreatedAt.Before(cur.CreatedAt) ||
			(prev.CreatedAt.Equal(cur.CreatedAt) && prev.ID < cur.ID)
		assert.True(t, less, "page concatenation out of order at %d", i)
	}
	for _, m := range paged {
		assert.NotEqual(t, 4, m.ID)
		assert.NotEqual(t, 8, m.ID)
	}
}
