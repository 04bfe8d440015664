package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"messaging-service/internal/models"
)

const sniffLen = 3072

// DiskStore keeps attachment blobs on local disk outside the message store.
// The returned descriptor is what gets persisted alongside the message.
type DiskStore struct {
	baseDir string
	baseURL string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(baseDir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{baseDir: baseDir, baseURL: baseURL}, nil
}

// Save writes the upload to disk under a generated name and returns its
// descriptor. The media type comes from sniffing the leading bytes, not from
// the client-declared type.
func (s *DiskStore) Save(fileName string, r io.Reader) (models.Attachment, error) {
	sniff := make([]byte, sniffLen)
	n, err := io.ReadFull(r, sniff)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return models.Attachment{}, err
	}
	if n == 0 {
		return models.Attachment{}, errors.New("empty file")
	}
	sniff = sniff[:n]

	mtype := mimetype.Detect(sniff)

	ext := filepath.Ext(fileName)
	if ext == "" {
		ext = mtype.Extension()
	}
	storedName := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(s.baseDir, storedName))
	if err != nil {
		return models.Attachment{}, err
	}
	defer f.Close()

	written, err := io.Copy(f, io.MultiReader(bytes.NewReader(sniff), r))
	if err != nil {
		os.Remove(f.Name())
		return models.Attachment{}, err
	}

	return models.Attachment{
		FileURL:  s.baseURL + "/uploads/messages/" + storedName,
		FileName: fileName,
		FileType: mtype.String(),
		FileSize: written,
	}, nil
}

// Dir returns the directory blobs are stored in, for static serving.
func (s *DiskStore) Dir() string {
	return s.baseDir
}
