// Package upload stores user-supplied files (client images and the like)
// under a per-kind folder. Uploads are independent of the interview.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
)

// DefaultKind is used when an upload carries no type label.
const DefaultKind = "general"

var (
	// ErrInvalidName is returned for empty or path-like names.
	ErrInvalidName = errors.New("upload: invalid name")
	// ErrNotFound is returned by Open for a missing object.
	ErrNotFound = errors.New("upload: not found")
)

// Object is an opened upload. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Store saves and retrieves uploads. Keys have the form <kind>/<filename>.
type Store interface {
	Save(ctx context.Context, kind, filename string, r io.Reader, size int64) (string, error)
	Open(ctx context.Context, key string) (*Object, error)
}

// CleanKind reduces a type label to a single safe path element, defaulting
// to DefaultKind.
func CleanKind(kind string) string {
	kind = strings.TrimSpace(kind)
	var b strings.Builder
	for _, r := range kind {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return DefaultKind
	}
	return out
}

// CleanFilename keeps only the final element of a client-supplied name.
func CleanFilename(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	name = path.Base(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

// Key joins a cleaned kind and filename.
func Key(kind, filename string) (string, error) {
	name, err := CleanFilename(filename)
	if err != nil {
		return "", err
	}
	return CleanKind(kind) + "/" + name, nil
}

// SplitKey validates key and returns its parts.
func SplitKey(key string) (kind, filename string, err error) {
	kind, filename, ok := strings.Cut(key, "/")
	if !ok || kind != CleanKind(kind) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, key)
	}
	clean, err := CleanFilename(filename)
	if err != nil || clean != filename {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, key)
	}
	return kind, filename, nil
}

// Title returns the label used in the upload acknowledgment: the kind with
// its first letter upper-cased and the rest lower-cased.
func Title(kind string) string {
	kind = CleanKind(kind)
	return strings.ToUpper(kind[:1]) + strings.ToLower(kind[1:])
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
