package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return store
}

func TestSaveSniffsImageType(t *testing.T) {
	store := newTestStore(t)

	att, err := store.Save("avatar.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.Equal(t, "image/png", att.FileType)
	assert.Equal(t, models.KindImage, models.KindForMediaType(att.FileType))
	assert.Equal(t, "avatar.png", att.FileName)
	assert.Equal(t, int64(len(pngHeader)), att.FileSize)
	assert.True(t, strings.HasPrefix(att.FileURL, "http://localhost:8080/uploads/messages/"))
	assert.True(t, strings.HasSuffix(att.FileURL, ".png"))
}

func TestSaveTextFallsBackToFileKind(t *testing.T) {
	store := newTestStore(t)

	att, err := store.Save("notes.txt", strings.NewReader("plain notes"))
	require.NoError(t, err)

	assert.Equal(t, models.KindFile, models.KindForMediaType(att.FileType))
	assert.True(t, strings.HasSuffix(att.FileURL, ".txt"))
}

func TestSaveWritesBlobLargerThanSniffWindow(t *testing.T) {
	store := newTestStore(t)

	payload := bytes.Repeat([]byte("abcdefgh"), 1024) // 8 KiB, past the sniff window
	att, err := store.Save("big.bin", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), att.FileSize)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	onDisk, err := os.ReadFile(filepath.Join(store.Dir(), entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, payload, onDisk)
}

func TestSaveRejectsEmptyFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("empty.txt", strings.NewReader(""))
	require.Error(t, err)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveGeneratesUniqueStoredNames(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Save("same.txt", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := store.Save("same.txt", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first.FileURL, second.FileURL)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
