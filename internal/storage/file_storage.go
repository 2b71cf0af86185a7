package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
	"go.uber.org/zap"
)

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFile writes content to the specified full path
	// Creates parent directories if needed
	SaveFile(fullPath string, content []byte) error

	// SaveStream copies at most limit bytes from r to fullPath.
	// A limit of zero or less disables the cap.
	SaveStream(fullPath string, r io.Reader, limit int64) (int64, error)

	// Stat returns the size of an existing regular file under the base
	Stat(fullPath string) (int64, error)

	// ValidatePath checks path security (no traversal, within base)
	ValidatePath(fullPath string) error
}

var _ FileStorage = (*LocalFileStorage)(nil)

// LocalFileStorage implements FileStorage for local filesystem
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger.Named("file_storage"),
	}
}

// BaseDir returns the storage root
func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}

// SaveFile writes content to the specified full path
func (s *LocalFileStorage) SaveFile(fullPath string, content []byte) error {
	if err := s.prepare(fullPath); err != nil {
		return err
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File saved successfully",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return nil
}

// SaveStream copies an upload to disk. Oversized streams are removed and
// reported as utils.ErrFileTooLarge.
func (s *LocalFileStorage) SaveStream(fullPath string, r io.Reader, limit int64) (int64, error) {
	if err := s.prepare(fullPath); err != nil {
		return 0, err
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()

	if err == nil && limit > 0 && n > limit {
		err = fmt.Errorf("%w: limit is %d bytes", utils.ErrFileTooLarge, limit)
	}
	if err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close file: %w", closeErr)
	}
	if err != nil {
		if rmErr := os.Remove(fullPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("Failed to remove partial file",
				zap.String("path", fullPath),
				zap.Error(rmErr))
		}
		return 0, err
	}

	s.logger.Debug("Stream saved successfully",
		zap.String("path", fullPath),
		zap.Int64("size", n))

	return n, nil
}

// Stat returns the size of a regular file inside the base directory
func (s *LocalFileStorage) Stat(fullPath string) (int64, error) {
	if err := s.ValidatePath(fullPath); err != nil {
		return 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(fullPath))
		}
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(fullPath))
	}
	return info.Size(), nil
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	// Resolve to absolute path
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	// Proper check: ensure path starts with base + separator or equals base
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("%w: %s", ErrPathEscapesBase, fullPath)
	}

	return nil
}

func (s *LocalFileStorage) prepare(fullPath string) error {
	// Validate path security
	if err := s.ValidatePath(fullPath); err != nil {
		return err
	}

	// Create parent directories
	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}
	return nil
}
