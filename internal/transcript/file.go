package transcript

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	namePrefix = "case_study_"
	nameSuffix = ".json"
	timeLayout = "20060102T150405.000000000Z"
	maxSuffix  = 1000
)

// ErrInvalidName is returned for names that are not transcript file names.
var ErrInvalidName = errors.New("transcript: invalid record name")

// ErrNotFound is returned by Read for a missing record.
var ErrNotFound = errors.New("transcript: record not found")

// Entry describes a stored record.
type Entry struct {
	Name    string
	ModTime time.Time
	Size    int64
}

// FileStore writes one JSON file per record into a directory. Files are
// created exclusively, so concurrent completions never overwrite each other.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("transcript: dir is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("transcript: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// BaseName returns the collision-free name stem for a completion time.
func BaseName(completedAt time.Time) string {
	return namePrefix + completedAt.UTC().Format(timeLayout)
}

// Persist writes rec and returns the chosen name. On a name collision the
// suffixes -1, -2, ... are tried in turn.
func (s *FileStore) Persist(_ context.Context, rec Record) (string, error) {
	base := BaseName(rec.CompletedAt)
	for n := 0; n < maxSuffix; n++ {
		name := base + nameSuffix
		if n > 0 {
			name = fmt.Sprintf("%s-%d%s", base, n, nameSuffix)
		}
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("transcript: create %s: %w", name, err)
		}

		rec.Name = name
		data, err := Encode(rec)
		if err == nil {
			_, err = f.Write(data)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(filepath.Join(s.dir, name))
			return "", fmt.Errorf("transcript: write %s: %w", name, err)
		}
		return name, nil
	}
	return "", fmt.Errorf("transcript: no free name for %s after %d attempts", base, maxSuffix)
}

// List returns stored records, newest first.
func (s *FileStore) List() ([]Entry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("transcript: list %s: %w", s.dir, err)
	}
	var out []Entry
	for _, d := range dirents {
		if d.IsDir() || !validName(d.Name()) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Name: d.Name(), ModTime: info.ModTime(), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// CountSince returns how many records were written after since.
func (s *FileStore) CountSince(_ context.Context, since time.Time) (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.ModTime.After(since) {
			n++
		}
	}
	return n, nil
}

// Read loads the named record.
func (s *FileStore) Read(name string) (Record, error) {
	if !validName(name) {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Record{}, fmt.Errorf("transcript: read %s: %w", name, err)
	}
	return Decode(data)
}

func validName(name string) bool {
	return name == filepath.Base(name) &&
		!strings.ContainsAny(name, `/\`) &&
		strings.HasPrefix(name, namePrefix) &&
		strings.HasSuffix(name, nameSuffix)
}
