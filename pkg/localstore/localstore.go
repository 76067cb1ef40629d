// Package localstore keeps uploaded submission files on the local disk.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Store writes uploads below a base directory.
type Store struct {
	base string
}

// New creates the base directory when needed.
func New(base string) (*Store, error) {
	if base == "" {
		base = "./uploads"
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{base: abs}, nil
}

// Upload copies reader to key and returns a file:// URL for it.
func (s *Store) Upload(ctx context.Context, key string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(dst)}).String(), nil
}

// Open returns the stored file for key.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(dst)
}

func (s *Store) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("empty key")
	}
	dst := filepath.Join(s.base, filepath.Clean("/"+key))
	if !strings.HasPrefix(dst, s.base+string(os.PathSeparator)) {
		return "", fmt.Errorf("key %q escapes upload dir", key)
	}
	return dst, nil
}
