// Package blob stores uploaded images outside the database. References are
// opaque URL paths ("/uploads/<name>") served back over a read-only static
// route; the store never interprets them beyond mapping to a file.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store abstracts blob persistence. Delete is best-effort: deleting a
// reference that no longer resolves is not an error.
type Store interface {
	Save(r io.Reader, ext string) (string, error)
	Delete(ref string) error
}

// URLPrefix is the public path prefix all local references share.
const URLPrefix = "/uploads/"

// allowedExts are the upload extensions accepted by Save.
var allowedExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

// ErrUnsupportedType is returned by Save for extensions outside the image
// allow-list.
var ErrUnsupportedType = errors.New("unsupported file type")

// AllowedExt reports whether ext (with leading dot, any case) is accepted.
func AllowedExt(ext string) bool {
	return allowedExts[strings.ToLower(ext)]
}

// LocalStore keeps blobs as files under a single directory with randomized
// names, so a reference never collides and never reveals the original
// filename.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed and returns a store rooted
// at it.
func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: abs}, nil
}

// Dir returns the absolute directory blobs are stored in.
func (s *LocalStore) Dir() string { return s.dir }

// Save writes the blob to disk under a fresh random name and returns its
// public reference.
func (s *LocalStore) Save(r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if !AllowedExt(ext) {
		return "", ErrUnsupportedType
	}
	name := uuid.New().String() + ext
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return URLPrefix + name, nil
}

// Delete removes the file behind a reference. References that do not carry
// the expected prefix, escape the store directory, or point at a missing
// file are ignored; cleanup must never fail a delete that owns it.
func (s *LocalStore) Delete(ref string) error {
	name, ok := strings.CutPrefix(ref, URLPrefix)
	if !ok || name == "" {
		return nil
	}
	path := filepath.Join(s.dir, filepath.Clean("/"+name))
	if !strings.HasPrefix(path, s.dir+string(os.PathSeparator)) {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
