package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"suivistock/internal/config"
)

// Manager stages uploaded workbooks into the uploads directory and cleans
// them up once a treatment run is over.
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// StageUpload copies an uploaded workbook stream into the uploads directory
// under a collision-free name (<field>_<uuid>.<ext>) and returns the staged
// absolute path. The original filename only contributes its extension.
func (m *Manager) StageUpload(field, originalName string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".xlsx"
	}

	if err := os.MkdirAll(m.paths.UploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", field, uuid.NewString()[:8], ext)
	stagedPath := m.paths.GetUploadPath(name)

	slog.Debug("Staging upload",
		slog.String("field", field),
		slog.String("original_name", originalName),
		slog.String("staged_path", stagedPath))

	dst, err := os.Create(stagedPath)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}

	if err := dst.Sync(); err != nil {
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to sync staged file: %w", err)
	}

	return stagedPath, nil
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.resolvePath(path)
	_, err := os.Stat(fullPath)
	exists := err == nil

	slog.Debug("FileExists check",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// Remove deletes a file
func (m *Manager) Remove(path string) error {
	fullPath := m.resolvePath(path)

	slog.Debug("Deleting file",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	return os.Remove(fullPath)
}

// CleanupAll removes the given files best-effort; missing files and removal
// failures are logged, never returned. Used after a treatment response has
// been sent, when nothing can act on the error anymore.
func (m *Manager) CleanupAll(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := m.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to clean up file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}

// GetFileSize returns the size of a file in bytes
func (m *Manager) GetFileSize(path string) (int64, error) {
	fullPath := m.resolvePath(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// EnsureDirectory creates a directory if it doesn't exist
func (m *Manager) EnsureDirectory(path string) error {
	fullPath := m.resolvePath(path)

	slog.Debug("Ensuring directory exists",
		slog.String("path", path),
		slog.String("full_path", fullPath))

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return os.MkdirAll(fullPath, 0755)
	}
	return nil
}

// resolvePath resolves a path relative to the appropriate base directory
func (m *Manager) resolvePath(path string) string {
	// If the path is already absolute, return it as-is
	if filepath.IsAbs(path) {
		return path
	}

	switch {
	case strings.HasPrefix(path, "uploads/"):
		return m.paths.GetUploadPath(strings.TrimPrefix(path, "uploads/"))
	case strings.HasPrefix(path, "outputs/"):
		return m.paths.GetOutputPath(strings.TrimPrefix(path, "outputs/"))
	case strings.HasPrefix(path, "reports/"):
		return m.paths.GetReportPath(strings.TrimPrefix(path, "reports/"))
	case strings.HasPrefix(path, "logs/"):
		return m.paths.GetLogPath(strings.TrimPrefix(path, "logs/"))
	default:
		// For files in the data directory
		return filepath.Join(m.paths.DataDir, path)
	}
}
