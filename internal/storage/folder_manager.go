package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FolderManager lays out the upload and processed directories and names the
// artifacts stored in them
type FolderManager struct {
	uploads   *LocalFileStorage
	processed *LocalFileStorage
	newID     func() string
	logger    *zap.Logger
}

// NewFolderManager creates a new FolderManager
func NewFolderManager(uploadDir, processedDir string, logger *zap.Logger) *FolderManager {
	return &FolderManager{
		uploads:   NewLocalFileStorage(uploadDir, logger),
		processed: NewLocalFileStorage(processedDir, logger),
		newID:     uuid.NewString,
		logger:    logger.Named("folders"),
	}
}

// Uploads returns the storage rooted at the upload directory
func (m *FolderManager) Uploads() *LocalFileStorage { return m.uploads }

// Processed returns the storage rooted at the processed directory
func (m *FolderManager) Processed() *LocalFileStorage { return m.processed }

// Dirs returns both managed directories
func (m *FolderManager) Dirs() []string {
	return []string{m.uploads.BaseDir(), m.processed.BaseDir()}
}

// EnsureFolders creates the upload and processed directories
func (m *FolderManager) EnsureFolders() error {
	for _, dir := range m.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			m.logger.Error("Failed to create folder",
				zap.String("folder_path", dir),
				zap.Error(err))
			return fmt.Errorf("failed to create folder: %w", err)
		}
	}
	return nil
}

// NewUploadPath assigns a unique id to an uploaded file and returns the path
// it should be saved under: <upload dir>/<id>_<secure name>
func (m *FolderManager) NewUploadPath(originalName string) (id, path string, err error) {
	safeName := utils.SecureFilename(originalName)
	if safeName == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, originalName)
	}

	id = m.newID()
	path = filepath.Join(m.uploads.BaseDir(), id+"_"+safeName)
	return id, path, nil
}

// ExtractedName is the per-file workbook name for an upload id
func ExtractedName(id string) string {
	return id + "_extracted.xlsx"
}

// ExtractedPath returns where the per-file workbook for id is written
func (m *FolderManager) ExtractedPath(id string) string {
	return filepath.Join(m.processed.BaseDir(), ExtractedName(id))
}

// NewConsolidatedPath names a fresh consolidated workbook
func (m *FolderManager) NewConsolidatedPath() (name, path string) {
	name = "consolidated_" + m.newID() + ".xlsx"
	return name, filepath.Join(m.processed.BaseDir(), name)
}

// ProcessedPath resolves a download name to an existing file in the
// processed directory. Names that would leave the directory are rejected.
func (m *FolderManager) ProcessedPath(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesBase, filename)
	}

	path := filepath.Join(m.processed.BaseDir(), filename)
	if _, err := m.processed.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
