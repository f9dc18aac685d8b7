package imagestore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vineyard-api/internal/apperr"
	"vineyard-api/internal/metrics"
	"vineyard-api/internal/platform/logger"
)

// Stored describes a photo written under the upload root.
type Stored struct {
	AbsPath string
	RelPath string
	MIME    string
}

// Store validates photos and writes them under root/YYYY/MM. It never
// touches the database, so callers run it before opening a transaction.
type Store struct {
	root     string
	maxBytes int
	now      func() time.Time
	log      *logger.Logger
}

func New(root string, maxBytes int, log *logger.Logger) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		root:     abs,
		maxBytes: maxBytes,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log.With("service", "ImageStore"),
	}, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) MaxBytes() int { return s.maxBytes }

// Process validates data and stores it.
func (s *Store) Process(data []byte, declared string) (Stored, error) {
	mime, ext, err := Validate(data, declared, s.maxBytes)
	if err != nil {
		s.log.Warn("Rejected photo", "size", len(data), "declared", declared, "error", err)
		metrics.RecordPhotoStore(metrics.PhotoRejected)
		return Stored{}, err
	}
	stored, err := s.save(data, mime, ext)
	if err != nil {
		s.log.Error("Failed to store photo", "error", err)
		metrics.RecordPhotoStore(metrics.PhotoFailed)
		return Stored{}, err
	}
	s.log.Info("Stored photo", "path", stored.RelPath, "mime", stored.MIME, "size", len(data))
	metrics.RecordPhotoStore(metrics.PhotoStored)
	return stored, nil
}

// ProcessBase64 decodes an inline payload and stores it. The data URL type,
// when present, takes precedence over fallbackType.
func (s *Store) ProcessBase64(payload, fallbackType string) (Stored, error) {
	data, declared, err := DecodeBase64(payload)
	if err != nil {
		metrics.RecordPhotoStore(metrics.PhotoRejected)
		return Stored{}, err
	}
	if declared == "" {
		declared = fallbackType
	}
	return s.Process(data, declared)
}

// Save writes an already validated payload.
func (s *Store) Save(data []byte, mime string) (Stored, error) {
	ext, ok := Allowed[NormalizeMIME(mime)]
	if !ok {
		return Stored{}, apperr.Validation(apperr.CodeUnsupportedType, "unsupported file type: %s", mime)
	}
	return s.save(data, NormalizeMIME(mime), ext)
}

func (s *Store) save(data []byte, mime, ext string) (Stored, error) {
	now := s.now()
	relDir := path.Join(now.Format("2006"), now.Format("01"))
	name := fmt.Sprintf("issue_%s_%s%s", now.Format("20060102_150405"), uuid.NewString()[:8], ext)
	rel := path.Join(relDir, name)

	absDir := filepath.Join(s.root, filepath.FromSlash(relDir))
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return Stored{}, apperr.Internal(apperr.CodeWriteFailed, fmt.Errorf("create photo dir: %w", err))
	}
	abs := filepath.Join(absDir, name)

	if err := writeFileAtomic(absDir, abs, data); err != nil {
		return Stored{}, apperr.Internal(apperr.CodeWriteFailed, err)
	}
	return Stored{AbsPath: abs, RelPath: rel, MIME: mime}, nil
}

// writeFileAtomic writes to a temp file in dir and renames it into place, so
// a failed write never leaves a file at target.
func writeFileAtomic(dir, target string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync photo: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close photo: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod photo: %w", err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename photo: %w", err)
	}
	return nil
}

// ErrOutsideRoot is returned for relative paths that resolve outside the
// upload root.
var ErrOutsideRoot = errors.New("path escapes upload root")

// Abs resolves a stored relative path.
func (s *Store) Abs(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", ErrOutsideRoot
	}
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	back, err := filepath.Rel(s.root, abs)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

// Exists reports whether rel names a regular file under the root.
func (s *Store) Exists(rel string) bool {
	abs, err := s.Abs(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the bytes of a stored photo.
func (s *Store) Read(rel string) ([]byte, error) {
	abs, err := s.Abs(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// Remove deletes a stored photo. Used to clean up after a record write that
// failed once the photo was already on disk.
func (s *Store) Remove(rel string) error {
	abs, err := s.Abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
