package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskStore writes uploads to <dir>/<kind>/<filename>. A later upload with
// the same name replaces the earlier one.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload: dir is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("upload: create dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save implements Store.
func (s *DiskStore) Save(_ context.Context, kind, filename string, r io.Reader, _ int64) (string, error) {
	key, err := Key(kind, filename)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("upload: create folder for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("upload: temp file for %s: %w", key, err)
	}
	_, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), target)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("upload: write %s: %w", key, err)
	}
	return key, nil
}

// Open implements Store.
func (s *DiskStore) Open(_ context.Context, key string) (*Object, error) {
	if _, _, err := SplitKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("upload: open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("upload: stat %s: %w", key, err)
	}
	return &Object{Body: f, Size: info.Size(), ContentType: contentType(key)}, nil
}
