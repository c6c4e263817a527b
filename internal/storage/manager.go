// Package storage implements the flat-directory stores used for uploads and exports.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a named file does not exist in the store.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidName is returned for names that are not a single plain path element.
	ErrInvalidName = errors.New("invalid file name")
)

// Store defines the interface for an ephemeral file store.
type Store interface {
	Dir() string
	Save(name string, r io.Reader) (*models.FileInfo, error)
	Create(name string) (*PendingFile, error)
	Open(name string) (io.ReadCloser, *models.FileInfo, error)
	Stat(name string) (*models.FileInfo, error)
	Path(name string) (string, error)
	List() ([]*models.FileInfo, error)
	Remove(name string) error
	Check() error
}

// LocalStore implements Store over a single directory on the local filesystem.
// Concurrent requests are isolated by their generated names only.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a new LocalStore, creating dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// NewName generates a collision-resistant name: <uuid>[_<base(original)>][.<ext>].
func NewName(original, ext string) string {
	name := uuid.New().String()
	if base := sanitizeBase(original); base != "" {
		name += "_" + base
	}
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	return name
}

func sanitizeBase(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// ValidateName rejects empty names, hidden names and anything containing a path separator.
func ValidateName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Dir returns the directory backing the store.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Path returns the absolute path for a validated name.
func (s *LocalStore) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Save writes r to a new file called name. Existing files are never overwritten.
func (s *LocalStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	return statInfo(f, name)
}

// Create returns a PendingFile that becomes visible under name only after Commit.
func (s *LocalStore) Create(name string) (*PendingFile, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	return &PendingFile{f: tmp, name: name, final: path}, nil
}

// Open opens a named file for reading.
func (s *LocalStore) Open(name string) (io.ReadCloser, *models.FileInfo, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}

	info, err := statInfo(f, name)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info == nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, info, nil
}

// Stat returns metadata for a named file.
func (s *LocalStore) Stat(name string) (*models.FileInfo, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return toInfo(fi), nil
}

// List returns the stored files, newest first. Hidden and temporary files are skipped.
func (s *LocalStore) List() ([]*models.FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	list := make([]*models.FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		list = append(list, toInfo(fi))
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ModifiedAt.After(list[j].ModifiedAt)
	})
	return list, nil
}

// Remove deletes a named file.
func (s *LocalStore) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Check verifies the directory exists and accepts new files.
func (s *LocalStore) Check() error {
	f, err := os.CreateTemp(s.dir, ".check-*")
	if err != nil {
		return fmt.Errorf("store not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}

// statInfo returns nil info for non-regular files.
func statInfo(f *os.File, name string) (*models.FileInfo, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, nil
	}
	info := toInfo(fi)
	info.Name = name
	return info, nil
}

func toInfo(fi os.FileInfo) *models.FileInfo {
	return &models.FileInfo{
		Name:       fi.Name(),
		Size:       fi.Size(),
		ModifiedAt: fi.ModTime(),
	}
}

var _ Store = (*LocalStore)(nil)
