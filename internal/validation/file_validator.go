package validation

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"suivistock/internal/config"
)

// FileTooLargeError reports an upload exceeding the configured size limit.
type FileTooLargeError struct {
	Size int64
	Max  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file size %d exceeds the %d byte limit", e.Size, e.Max)
}

// UnsupportedExtensionError reports a file whose extension the upload
// policy does not allow.
type UnsupportedExtensionError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("file %q has unsupported extension %q", e.Filename, e.Extension)
}

// FileValidator validates workbook files before a treatment touches them
type FileValidator struct {
	logger            *slog.Logger
	maxFileSize       int64
	allowedExtensions []string
}

// NewFileValidator creates a new file validator from the upload policy
func NewFileValidator(cfg *config.Config, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:            logger,
		maxFileSize:       cfg.Upload.MaxFileSize,
		allowedExtensions: cfg.Upload.AllowedExtensions,
	}
}

// ValidateUploadHeader checks a multipart file header against the upload
// policy before anything is staged: declared size and filename extension.
func (v *FileValidator) ValidateUploadHeader(field string, header *multipart.FileHeader) error {
	if v.maxFileSize > 0 && header.Size > v.maxFileSize {
		v.logger.Warn("Upload rejected: file too large",
			slog.String("field", field),
			slog.String("filename", header.Filename),
			slog.Int64("size", header.Size),
			slog.Int64("max", v.maxFileSize))
		return &FileTooLargeError{Size: header.Size, Max: v.maxFileSize}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !v.extensionAllowed(ext) {
		v.logger.Warn("Upload rejected: unsupported extension",
			slog.String("field", field),
			slog.String("filename", header.Filename),
			slog.String("extension", ext))
		return &UnsupportedExtensionError{Filename: header.Filename, Extension: ext}
	}

	if strings.HasPrefix(filepath.Base(header.Filename), "~$") {
		v.logger.Warn("Upload rejected: Excel temporary file",
			slog.String("field", field),
			slog.String("filename", header.Filename))
		return &UnsupportedExtensionError{Filename: header.Filename, Extension: ext}
	}

	v.logger.Debug("Upload header validated",
		slog.String("field", field),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))
	return nil
}

// ValidateWorkbookFile checks that a workbook path exists, is a regular
// readable file and carries an allowed extension. Used on CLI arguments,
// where files come from the local filesystem instead of an upload.
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	if v.maxFileSize > 0 && info.Size() > v.maxFileSize {
		return &FileTooLargeError{Size: info.Size(), Max: v.maxFileSize}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !v.extensionAllowed(ext) {
		return &UnsupportedExtensionError{Filename: filepath.Base(path), Extension: ext}
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	// Try to create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func (v *FileValidator) extensionAllowed(ext string) bool {
	if len(v.allowedExtensions) == 0 {
		return true
	}
	for _, allowed := range v.allowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}
