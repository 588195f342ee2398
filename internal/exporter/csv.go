package exporter

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"

	"suivistock/internal/config"
	"suivistock/internal/errors"
)

// CSVWriter writes csv-tagged record slices to the reports directory.
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteRecords marshals records (a slice of csv-tagged structs) into a CSV
// file. The header row is written even when the slice is empty, and the
// file starts with a UTF-8 BOM so Excel renders the accented headers.
func (w *CSVWriter) WriteRecords(filePath string, records interface{}) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewStorageError("failed to create directory for CSV output", err)
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return errors.NewParsingError("failed to marshal records to CSV", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return errors.NewStorageError("failed to create CSV file", err)
	}
	defer file.Close()

	// BOM keeps Excel from mangling UTF-8
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return errors.NewStorageError("failed to write CSV byte order mark", err)
	}

	if _, err := file.Write(data); err != nil {
		return errors.NewStorageError("failed to write CSV rows", err)
	}

	return nil
}

// resolvePath resolves a path to the reports directory unless it is
// already absolute.
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return w.paths.GetReportPath(filePath)
}
