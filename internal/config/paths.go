package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	UploadsDir    string
	OutputsDir    string
	ReportsDir    string
	LogsDir       string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	// Get the directory containing the executable
	exeDir := filepath.Dir(exe)

	// All paths are relative to the executable directory
	// Directory structure:
	// dist/
	//   ├── data/
	//   │   ├── uploads/   (workbooks received on the treatment endpoint)
	//   │   ├── outputs/   (updated tracking workbooks)
	//   │   └── reports/   (variation CSV exports)
	//   └── logs/          (application logs)

	dataDir := filepath.Join(exeDir, "data")

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		UploadsDir:    filepath.Join(dataDir, "uploads"),
		OutputsDir:    filepath.Join(dataDir, "outputs"),
		ReportsDir:    filepath.Join(dataDir, "reports"),
		LogsDir:       filepath.Join(exeDir, "logs"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.UploadsDir,
		p.OutputsDir,
		p.ReportsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetUploadPath returns the path for an uploaded workbook
func (p *Paths) GetUploadPath(filename string) string {
	return filepath.Join(p.UploadsDir, filename)
}

// GetOutputPath returns the path for a generated workbook
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputsDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// SanitizeDateLabel converts a DD/MM/YYYY column label into a form usable in
// a filename (slashes become dashes)
func SanitizeDateLabel(label string) string {
	return strings.ReplaceAll(label, "/", "-")
}

// GetOutputWorkbookPath returns the path for an updated tracking workbook
// (e.g. suivi_stock_15-01-2024_<runID>.xlsx)
func (p *Paths) GetOutputWorkbookPath(label, runID string) string {
	filename := fmt.Sprintf("suivi_stock_%s_%s.xlsx", SanitizeDateLabel(label), runID)
	return filepath.Join(p.OutputsDir, filename)
}

// GetVariationCSVPath returns the path for a variation CSV export
// (e.g. variation_mensuelle_15-01-2024.csv)
func (p *Paths) GetVariationCSVPath(slug, label string) string {
	filename := fmt.Sprintf("variation_%s_%s.csv", slug, SanitizeDateLabel(label))
	return filepath.Join(p.ReportsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("uploads", p.UploadsDir),
			slog.String("outputs", p.OutputsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		))
}
