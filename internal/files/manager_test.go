package files

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suivistock/internal/config"
)

func testManagerPaths(t *testing.T) *config.Paths {
	t.Helper()

	root := t.TempDir()
	paths := &config.Paths{
		ExecutableDir: root,
		DataDir:       filepath.Join(root, "data"),
		UploadsDir:    filepath.Join(root, "data", "uploads"),
		OutputsDir:    filepath.Join(root, "data", "outputs"),
		ReportsDir:    filepath.Join(root, "data", "reports"),
		LogsDir:       filepath.Join(root, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func TestNewManager(t *testing.T) {
	paths := &config.Paths{
		ExecutableDir: "/test/executable",
		DataDir:       "/test/data",
	}

	manager := NewManager(paths)
	assert.NotNil(t, manager)
	assert.Equal(t, paths, manager.paths)
}

func TestStageUpload(t *testing.T) {
	tests := []struct {
		name         string
		field        string
		originalName string
		content      string
		wantPattern  string
	}{
		{
			name:         "xlsx upload keeps extension",
			field:        "suivi",
			originalName: "Suivi de Stock.xlsx",
			content:      "workbook-bytes",
			wantPattern:  `^suivi_[0-9a-f]{8}\.xlsx$`,
		},
		{
			name:         "uppercase extension is lowered",
			field:        "export",
			originalName: "EXPORT.XLSX",
			content:      "export-bytes",
			wantPattern:  `^export_[0-9a-f]{8}\.xlsx$`,
		},
		{
			name:         "missing extension defaults to xlsx",
			field:        "suivi",
			originalName: "suivi",
			content:      "raw",
			wantPattern:  `^suivi_[0-9a-f]{8}\.xlsx$`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := testManagerPaths(t)
			manager := NewManager(paths)

			staged, err := manager.StageUpload(tt.field, tt.originalName, strings.NewReader(tt.content))
			require.NoError(t, err)

			assert.Equal(t, paths.UploadsDir, filepath.Dir(staged))
			assert.Regexp(t, regexp.MustCompile(tt.wantPattern), filepath.Base(staged))

			data, err := os.ReadFile(staged)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestStageUploadUniqueNames(t *testing.T) {
	paths := testManagerPaths(t)
	manager := NewManager(paths)

	first, err := manager.StageUpload("suivi", "a.xlsx", bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	second, err := manager.StageUpload("suivi", "a.xlsx", bytes.NewReader([]byte("two")))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestManagerFileExists(t *testing.T) {
	paths := testManagerPaths(t)
	manager := NewManager(paths)

	stagedPath := filepath.Join(paths.UploadsDir, "present.xlsx")
	require.NoError(t, os.WriteFile(stagedPath, []byte("data"), 0644))

	assert.True(t, manager.FileExists(stagedPath))
	assert.True(t, manager.FileExists("uploads/present.xlsx"))
	assert.False(t, manager.FileExists("uploads/absent.xlsx"))
}

func TestManagerRemove(t *testing.T) {
	paths := testManagerPaths(t)
	manager := NewManager(paths)

	stagedPath := filepath.Join(paths.UploadsDir, "doomed.xlsx")
	require.NoError(t, os.WriteFile(stagedPath, []byte("data"), 0644))

	require.NoError(t, manager.Remove(stagedPath))
	assert.NoFileExists(t, stagedPath)

	// Removing again reports the missing file.
	assert.Error(t, manager.Remove(stagedPath))
}

func TestManagerCleanupAll(t *testing.T) {
	paths := testManagerPaths(t)
	manager := NewManager(paths)

	first := filepath.Join(paths.UploadsDir, "first.xlsx")
	second := filepath.Join(paths.OutputsDir, "second.xlsx")
	require.NoError(t, os.WriteFile(first, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("b"), 0644))

	// Missing entries and empty paths are tolerated silently.
	manager.CleanupAll(first, "", second, filepath.Join(paths.UploadsDir, "ghost.xlsx"))

	assert.NoFileExists(t, first)
	assert.NoFileExists(t, second)
}

func TestManagerGetFileSize(t *testing.T) {
	paths := testManagerPaths(t)
	manager := NewManager(paths)

	stagedPath := filepath.Join(paths.UploadsDir, "sized.xlsx")
	require.NoError(t, os.WriteFile(stagedPath, []byte("12345"), 0644))

	size, err := manager.GetFileSize(stagedPath)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	_, err = manager.GetFileSize(filepath.Join(paths.UploadsDir, "absent.xlsx"))
	assert.Error(t, err)
}

func TestManagerEnsureDirectory(t *testing.T) {
	paths := testManagerPaths(t)
	manager := NewManager(paths)

	target := filepath.Join(paths.DataDir, "nested", "deep")
	require.NoError(t, manager.EnsureDirectory(target))
	assert.DirExists(t, target)

	// Idempotent on an existing directory.
	require.NoError(t, manager.EnsureDirectory(target))
}

func TestManagerResolvePath(t *testing.T) {
	paths := testManagerPaths(t)
	manager := NewManager(paths)

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "absolute path untouched",
			path: filepath.Join(paths.UploadsDir, "a.xlsx"),
			want: filepath.Join(paths.UploadsDir, "a.xlsx"),
		},
		{
			name: "uploads prefix",
			path: "uploads/a.xlsx",
			want: filepath.Join(paths.UploadsDir, "a.xlsx"),
		},
		{
			name: "outputs prefix",
			path: "outputs/b.xlsx",
			want: filepath.Join(paths.OutputsDir, "b.xlsx"),
		},
		{
			name: "reports prefix",
			path: "reports/c.csv",
			want: filepath.Join(paths.ReportsDir, "c.csv"),
		},
		{
			name: "logs prefix",
			path: "logs/app.log",
			want: filepath.Join(paths.LogsDir, "app.log"),
		},
		{
			name: "bare name lands in data dir",
			path: "loose.txt",
			want: filepath.Join(paths.DataDir, "loose.txt"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, manager.resolvePath(tt.path))
		})
	}
}
