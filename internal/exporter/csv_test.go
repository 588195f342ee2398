package exporter

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suivistock/internal/config"
	"suivistock/internal/errors"
	"suivistock/pkg/contracts/domain"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	return &config.Paths{
		ExecutableDir: base,
		DataDir:       filepath.Join(base, "data"),
		UploadsDir:    filepath.Join(base, "data", "uploads"),
		OutputsDir:    filepath.Join(base, "data", "outputs"),
		ReportsDir:    filepath.Join(base, "data", "reports"),
		LogsDir:       filepath.Join(base, "logs"),
	}
}

func TestCSVWriter_WriteRecords(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	records := []domain.VariationRecord{
		{
			ArticleCode:         "ART-001",
			Description:         "Vis inox M4",
			LocationCode:        "MAG-01",
			LocationDescription: "Magasin Central",
			Variation:           -3,
			Current:             4,
		},
		{
			ArticleCode:         "ART-002",
			Description:         "Écrou laiton",
			LocationCode:        "MAG-02",
			LocationDescription: "Dépôt Nord",
			Variation:           12,
			Current:             12,
		},
	}

	err := writer.WriteRecords("test.csv", records)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(paths.ReportsDir, "test.csv"))
	require.NoError(t, err)

	// BOM prefix for Excel
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(data[3:])), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Code Article,Désignation,Code Magasin,Magasin,Variation,Quantité Actuelle", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "ART-001")
	assert.Contains(t, lines[1], "-3")
	assert.Contains(t, lines[2], "Écrou laiton")
	assert.Contains(t, lines[2], "12")
}

func TestCSVWriter_WriteRecords_EmptySlice(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	err := writer.WriteRecords("empty.csv", []domain.VariationRecord{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(paths.ReportsDir, "empty.csv"))
	require.NoError(t, err)

	// Header only
	content := strings.TrimSpace(string(data[3:]))
	assert.Equal(t, "Code Article,Désignation,Code Magasin,Magasin,Variation,Quantité Actuelle", content)
}

func TestCSVWriter_WriteRecords_CreatesDirectory(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	// Reports directory does not exist yet
	_, err := os.Stat(paths.ReportsDir)
	require.True(t, os.IsNotExist(err))

	err = writer.WriteRecords("nested.csv", []domain.VariationRecord{})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(paths.ReportsDir, "nested.csv"))
	assert.NoError(t, err)
}

func TestCSVWriter_WriteRecords_NotASlice(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	err := writer.WriteRecords("bad.csv", 42)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrTypeParsing, appErr.Type)
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	paths := testPaths(t)
	writer := NewCSVWriter(paths)

	abs := filepath.Join(t.TempDir(), "direct.csv")
	assert.Equal(t, abs, writer.resolvePath(abs))

	assert.Equal(t, filepath.Join(paths.ReportsDir, "relative.csv"), writer.resolvePath("relative.csv"))
}
