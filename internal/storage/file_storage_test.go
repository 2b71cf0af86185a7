package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveFile(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	t.Run("saves file successfully", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "invoice.pdf")
		content := []byte("PDF content here")

		require.NoError(t, fs.SaveFile(fullPath, content))

		savedContent, err := os.ReadFile(fullPath)
		require.NoError(t, err)
		assert.Equal(t, content, savedContent)
	})

	t.Run("creates parent directories", func(t *testing.T) {
		fullPath := filepath.Join(tempDir, "deep", "nested", "file.pdf")

		require.NoError(t, fs.SaveFile(fullPath, []byte("content")))
		assert.FileExists(t, fullPath)
	})

	t.Run("rejects path outside base", func(t *testing.T) {
		err := fs.SaveFile(filepath.Join(tempDir, "..", "escape.pdf"), []byte("x"))
		assert.ErrorIs(t, err, ErrPathEscapesBase)
	})
}

func TestLocalFileStorage_SaveStream(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	t.Run("within limit", func(t *testing.T) {
		path := filepath.Join(tempDir, "ok.pdf")

		n, err := fs.SaveStream(path, strings.NewReader("12345"), 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
		assert.FileExists(t, path)
	})

	t.Run("over limit removes file", func(t *testing.T) {
		path := filepath.Join(tempDir, "big.pdf")

		_, err := fs.SaveStream(path, strings.NewReader("123456"), 5)
		assert.ErrorIs(t, err, utils.ErrFileTooLarge)
		assert.NoFileExists(t, path)
	})

	t.Run("no limit", func(t *testing.T) {
		path := filepath.Join(tempDir, "any.pdf")

		n, err := fs.SaveStream(path, strings.NewReader(strings.Repeat("a", 1000)), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), n)
	})
}

func TestLocalFileStorage_Stat(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	path := filepath.Join(tempDir, "a.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "sub"), 0755))

	size, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	_, err = fs.Stat(filepath.Join(tempDir, "missing.xlsx"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = fs.Stat(filepath.Join(tempDir, "sub"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalFileStorage_ValidatePath(t *testing.T) {
	tempDir := t.TempDir()
	fs := NewLocalFileStorage(tempDir, zap.NewNop())

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"inside base", filepath.Join(tempDir, "file.pdf"), false},
		{"nested", filepath.Join(tempDir, "a", "b.pdf"), false},
		{"base itself", tempDir, false},
		{"parent traversal", filepath.Join(tempDir, "..", "other.pdf"), true},
		{"sibling with shared prefix", tempDir + "-evil/file.pdf", true},
		{"absolute elsewhere", "/etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.ValidatePath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPathEscapesBase)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
