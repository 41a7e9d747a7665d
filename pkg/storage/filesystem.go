package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrOutsideRoot is returned when a stored path does not resolve under the upload directory.
var ErrOutsideRoot = errors.New("path outside storage root")

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LocalStorage persists uploaded blobs on disk under a base directory.
type LocalStorage struct {
	baseDir string
	now     func() time.Time
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: filepath.Clean(baseDir), now: time.Now}, nil
}

const createAttempts = 4

// Save streams r into a new blob named "<unix millis>-<original name>" and
// returns the stored path (base dir included) and bytes written. When that
// name is taken the blob becomes "<unix millis>-<uuid8>-<original name>".
func (s *LocalStorage) Save(originalName string, r io.Reader) (string, int64, error) {
	file, path, err := s.create(s.now().UnixMilli(), SanitizeName(originalName))
	if err != nil {
		return "", 0, err
	}
	written, err := io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write upload file: %w", err)
	}
	return filepath.ToSlash(path), written, nil
}

func (s *LocalStorage) create(millis int64, name string) (*os.File, string, error) {
	candidate := fmt.Sprintf("%d-%s", millis, name)
	for attempt := 0; attempt < createAttempts; attempt++ {
		if attempt > 0 {
			candidate = fmt.Sprintf("%d-%s-%s", millis, uuid.NewString()[:8], name)
		}
		path := filepath.Join(s.baseDir, candidate)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create upload file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create upload file: no free name for %s", name)
}

// Open returns a read-only handle for a stored blob.
func (s *LocalStorage) Open(storedPath string) (*os.File, error) {
	path, err := s.resolve(storedPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored blob if present.
func (s *LocalStorage) Delete(storedPath string) error {
	path, err := s.resolve(storedPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Dir returns the upload directory.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

func (s *LocalStorage) resolve(storedPath string) (string, error) {
	path := filepath.Clean(filepath.FromSlash(storedPath))
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, s.baseDir+string(filepath.Separator)) {
		path = filepath.Join(s.baseDir, path)
	}
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, storedPath)
	}
	return path, nil
}

// SanitizeName keeps the base name of an uploaded file and replaces anything
// outside [A-Za-z0-9._-] with a dash.
func SanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeName.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		return "upload"
	}
	return base
}
