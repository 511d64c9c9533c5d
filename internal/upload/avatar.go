// Package upload stores user avatars on local disk.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is where avatars are served from.
const URLPrefix = "/uploads/avatars/"

var (
	// ErrTooLarge is returned for files above the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType is returned for anything but PNG or JPEG.
	ErrUnsupportedType = errors.New("only .png, .jpg and .jpeg formats are allowed")
)

var allowed = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// AvatarStore writes avatars under <root>/avatars.
type AvatarStore struct {
	root     string
	dir      string
	maxBytes int64
}

// NewAvatarStore creates the avatar directory if needed.
func NewAvatarStore(root string, maxBytes int64) (*AvatarStore, error) {
	dir := filepath.Join(root, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &AvatarStore{root: root, dir: dir, maxBytes: maxBytes}, nil
}

// Root returns the directory served under /uploads.
func (s *AvatarStore) Root() string { return s.root }

// MaxBytes returns the size limit of one avatar.
func (s *AvatarStore) MaxBytes() int64 { return s.maxBytes }

// Save sniffs the content type of r, writes it to a fresh file and returns
// the public URL.
func (s *AvatarStore) Save(r io.Reader) (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if n > s.maxBytes {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(buf.Bytes())
	ext, ok := allowed[mt.String()]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return URLPrefix + name, nil
}
