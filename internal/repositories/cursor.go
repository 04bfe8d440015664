package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Pagination bounds enforced by ListPage and Search.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

var ErrBadCursor = errors.New("malformed cursor")

// Cursor is the order key of a message: (created_at, id). Pages are
// restartable by passing the oldest item's cursor from the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        int
}

// String encodes the cursor as "<unix-nanos>.<message-id>".
func (c Cursor) String() string {
	return fmt.Sprintf("%d.%d", c.CreatedAt.UnixNano(), c.ID)
}

// ParseCursor decodes a cursor produced by String.
func ParseCursor(s string) (Cursor, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return Cursor{}, ErrBadCursor
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, ErrBadCursor
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil || id <= 0 {
		return Cursor{}, ErrBadCursor
	}
	return Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// ClampPageSize applies the default and the fixed ceiling to a requested
// page size.
func ClampPageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
