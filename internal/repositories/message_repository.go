package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, channel_id, sender_id, content, kind, is_deleted, is_edited, created_at`

// MessageRepository defines durable storage for channel messages.
type MessageRepository interface {
	Append(ctx context.Context, channelID, senderID int, content, kind string, attachments []models.Attachment) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	Edit(ctx context.Context, messageID, senderID int, content string) (models.Message, error)
	SoftDelete(ctx context.Context, messageID, senderID int) error
	MarkRead(ctx context.Context, channelID, userID int) (int, error)
	ListPage(ctx context.Context, channelID int, before *Cursor, limit int) ([]models.Message, error)
	Search(ctx context.Context, channelID int, query string, limit int) ([]models.Message, error)
	UnreadCount(ctx context.Context, channelID, userID int) (int, error)
	AttachmentsFor(ctx context.Context, messageIDs []int) (map[int][]models.Attachment, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores a message and its attachments in one transaction.
func (r *MessageRepo) Append(ctx context.Context, channelID, senderID int, content, kind string, attachments []models.Attachment) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.Message
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO messages (channel_id, sender_id, content, kind) VALUES ($1, $2, $3, $4) RETURNING `+messageColumns,
		channelID, senderID, content, kind).StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	for i, att := range attachments {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO attachments (message_id, file_url, file_name, file_type, file_size, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			msg.ID, att.FileURL, att.FileName, att.FileType, att.FileSize, i); err != nil {
			return models.Message{}, err
		}
		att.MessageID = msg.ID
		att.Position = i
		msg.Attachments = append(msg.Attachments, att)
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// GetMessage retrieves a single message regardless of lifecycle state.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// Edit updates content on a live text message owned by the sender. The
// preconditions are part of the UPDATE so a concurrent delete cannot be
// overwritten; losing the race surfaces as ErrMessageNotFound.
func (r *MessageRepo) Edit(ctx context.Context, messageID, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`UPDATE messages SET content=$3, is_edited=TRUE
         WHERE id=$1 AND sender_id=$2 AND is_deleted=FALSE AND kind='text'
         RETURNING `+messageColumns,
		messageID, senderID, content).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete marks a sender-owned message as deleted. The row is retained so
// its id stays valid for the deletion broadcast.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID, senderID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted=TRUE WHERE id=$1 AND sender_id=$2 AND is_deleted=FALSE`,
		messageID, senderID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// MarkRead adds a read entry for the user to every live channel message that
// lacks one. Idempotent; returns the number of newly marked messages.
func (r *MessageRepo) MarkRead(ctx context.Context, channelID, userID int) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO message_reads (message_id, user_id)
         SELECT id, $2 FROM messages WHERE channel_id=$1 AND is_deleted=FALSE
         ON CONFLICT (message_id, user_id) DO NOTHING`,
		channelID, userID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// ListPage returns a page of non-deleted messages ordered oldest to newest.
// The cursor selects strictly older rows, so concatenating pages reproduces
// the full sequence.
func (r *MessageRepo) ListPage(ctx context.Context, channelID int, before *Cursor, limit int) ([]models.Message, error) {
	limit = ClampPageSize(limit)

	var msgs []models.Message
	var err error
	if before != nil {
		err = r.db.SelectContext(ctx, &msgs,
			`SELECT `+messageColumns+` FROM messages
             WHERE channel_id=$1 AND is_deleted=FALSE AND (created_at, id) < ($2, $3)
             ORDER BY created_at DESC, id DESC LIMIT $4`,
			channelID, before.CreatedAt, before.ID, limit)
	} else {
		err = r.db.SelectContext(ctx, &msgs,
			`SELECT `+messageColumns+` FROM messages
             WHERE channel_id=$1 AND is_deleted=FALSE
             ORDER BY created_at DESC, id DESC LIMIT $2`,
			channelID, limit)
	}
	if err != nil {
		return nil, err
	}

	// fetched newest-first for the keyset, returned oldest-first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// likeEscaper neutralizes LIKE metacharacters so the query matches its
// literal text instead of acting as a pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search runs a case-insensitive substring match over live message content,
// newest first, capped at the page-size ceiling.
func (r *MessageRepo) Search(ctx context.Context, channelID int, query string, limit int) ([]models.Message, error) {
	limit = ClampPageSize(limit)

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE channel_id=$1 AND is_deleted=FALSE AND content ILIKE '%' || $2 || '%'
         ORDER BY created_at DESC, id DESC LIMIT $3`,
		channelID, likeEscaper.Replace(query), limit)
	return msgs, err
}

// UnreadCount counts non-deleted channel messages without a read entry for
// the user.
func (r *MessageRepo) UnreadCount(ctx context.Context, channelID, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages m
         WHERE m.channel_id=$1 AND m.is_deleted=FALSE
         AND NOT EXISTS (SELECT 1 FROM message_reads r WHERE r.message_id=m.id AND r.user_id=$2)`,
		channelID, userID)
	return count, err
}

// AttachmentsFor bulk-loads attachments for the given messages.
func (r *MessageRepo) AttachmentsFor(ctx context.Context, messageIDs []int) (map[int][]models.Attachment, error) {
	result := make(map[int][]models.Attachment)
	if len(messageIDs) == 0 {
		return result, nil
	}

	var atts []models.Attachment
	err := r.db.SelectContext(ctx, &atts,
		`SELECT id, message_id, file_url, file_name, file_type, file_size, position
         FROM attachments WHERE message_id = ANY($1) ORDER BY message_id, position`,
		pq.Array(messageIDs))
	if err != nil {
		return nil, err
	}
	for _, att := range atts {
		result[att.MessageID] = append(result[att.MessageID], att)
	}
	return result, nil
}
