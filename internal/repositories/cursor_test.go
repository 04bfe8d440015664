package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	orig := Cursor{CreatedAt: time.Date(2025, 4, 2, 9, 30, 15, 123456789, time.UTC), ID: 42}

	parsed, err := ParseCursor(orig.String())
	require.NoError(t, err)
	assert.True(t, parsed.CreatedAt.Equal(orig.CreatedAt))
	assert.Equal(t, orig.ID, parsed.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"12345",
		"abc.7",
		"12345.xyz",
		"12345.0",
		"12345.-3",
		".7",
	}
	for _, raw := range cases {
		_, err := ParseCursor(raw)
		assert.ErrorIs(t, err, ErrBadCursor, "input %q", raw)
	}
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampPageSize(0))
	assert.Equal(t, DefaultPageSize, ClampPageSize(-10))
	assert.Equal(t, 25, ClampPageSize(25))
	assert.Equal(t, MaxPageSize, ClampPageSize(MaxPageSize))
	assert.Equal(t, MaxPageSize, ClampPageSize(MaxPageSize+1))
	assert.Equal(t, MaxPageSize, ClampPageSize(100000))
}
