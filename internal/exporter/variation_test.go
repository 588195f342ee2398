package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suivistock/pkg/contracts/domain"
)

func TestVariationExporter_Export(t *testing.T) {
	paths := testPaths(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	exporter := NewVariationExporter(paths, logger)

	report := domain.VariationReport{
		CurrentLabel:  "15/01/2024",
		PreviousLabel: "15/12/2023",
		Offset:        1,
		Available:     true,
		Records: []domain.VariationRecord{
			{
				ArticleCode:         "ART-001",
				Description:         "Vis inox M4",
				LocationCode:        "MAG-01",
				LocationDescription: "Magasin Central",
				Variation:           -3,
				Current:             4,
			},
			{
				ArticleCode:         "ART-003",
				Description:         "Rondelle acier",
				LocationCode:        "MAG-01",
				LocationDescription: "Magasin Central",
				Variation:           8,
				Current:             15,
			},
		},
	}

	path, err := exporter.Export(context.Background(), "mensuelle", report)
	require.NoError(t, err)

	// Date label slashes are flattened for the filename
	assert.Equal(t, filepath.Join(paths.ReportsDir, "variation_mensuelle_15-01-2024.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Round-trip through the decoder to check the full record set
	var decoded []domain.VariationRecord
	dec, err := csvutil.NewDecoder(csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))))
	require.NoError(t, err)
	require.NoError(t, dec.Decode(&decoded))

	assert.Equal(t, report.Records, decoded)
}

func TestVariationExporter_Export_Unavailable(t *testing.T) {
	paths := testPaths(t)
	exporter := NewVariationExporter(paths, nil)

	report := domain.VariationReport{
		CurrentLabel: "15/01/2024",
		Offset:       6,
		Available:    false,
	}

	path, err := exporter.Export(context.Background(), "semestrielle", report)
	require.NoError(t, err)
	assert.Empty(t, path)

	// Nothing gets written for an unavailable lookback
	_, err = os.Stat(filepath.Join(paths.ReportsDir, "variation_semestrielle_15-01-2024.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestVariationExporter_Export_NoRecords(t *testing.T) {
	paths := testPaths(t)
	exporter := NewVariationExporter(paths, nil)

	report := domain.VariationReport{
		CurrentLabel:  "15/02/2024",
		PreviousLabel: "15/01/2024",
		Offset:        1,
		Available:     true,
	}

	path, err := exporter.Export(context.Background(), "mensuelle", report)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Header-only file mirrors the empty report sheet
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, 0, bytes.Count(trimmed, []byte("\n")))
	assert.Equal(t, "Code Article,Désignation,Code Magasin,Magasin,Variation,Quantité Actuelle", string(trimmed))
}
