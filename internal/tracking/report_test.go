package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"suivistock/pkg/contracts/domain"
)

func reportTestWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), SheetStockList)
	return f
}

func TestReportWriterPopulatedLayout(t *testing.T) {
	f := reportTestWorkbook(t)
	report := domain.VariationReport{
		CurrentLabel:  "15/02/2024",
		PreviousLabel: "15/01/2024",
		Offset:        1,
		Available:     true,
		Records: []domain.VariationRecord{
			{ArticleCode: "X1", Description: "Vis M4", LocationCode: "A", LocationDescription: "Entrepôt A", Variation: -3, Current: 2},
			{ArticleCode: "X2", Description: "Écrou M4", LocationCode: "B", LocationDescription: "Entrepôt B", Variation: 5, Current: 25},
		},
	}

	err := NewReportWriter(nil).Write(context.Background(), f, MonthlyReport, report)
	require.NoError(t, err)

	title, err := f.GetCellValue(MonthlyReport.Name, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Variation entre 15/01/2024 et 15/02/2024", title)

	for c, want := range reportHeaders {
		cell, err := excelize.CoordinatesToCellName(c+1, 2)
		require.NoError(t, err)
		got, err := f.GetCellValue(MonthlyReport.Name, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	row3 := []string{"X1", "Vis M4", "A", "Entrepôt A", "-3", "2"}
	for c, want := range row3 {
		cell, err := excelize.CoordinatesToCellName(c+1, 3)
		require.NoError(t, err)
		got, err := f.GetCellValue(MonthlyReport.Name, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	merges, err := f.GetMergeCells(MonthlyReport.Name)
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, "A1", merges[0].GetStartAxis())
	assert.Equal(t, "F1", merges[0].GetEndAxis())
}

func TestReportWriterNoDataState(t *testing.T) {
	f := reportTestWorkbook(t)
	report := domain.VariationReport{CurrentLabel: "15/01/2024", Offset: 6}

	err := NewReportWriter(nil).Write(context.Background(), f, SemestrialReport, report)
	require.NoError(t, err)

	message, err := f.GetCellValue(SemestrialReport.Name, "A1")
	require.NoError(t, err)
	assert.Equal(t, SemestrialReport.NoDataMessage, message)

	header, err := f.GetCellValue(SemestrialReport.Name, "A2")
	require.NoError(t, err)
	assert.Empty(t, header, "no header grid below a no-data message")
}

func TestReportWriterEmptyRecords(t *testing.T) {
	f := reportTestWorkbook(t)
	report := domain.VariationReport{
		CurrentLabel:  "15/02/2024",
		PreviousLabel: "15/01/2024",
		Offset:        1,
		Available:     true,
	}

	err := NewReportWriter(nil).Write(context.Background(), f, MonthlyReport, report)
	require.NoError(t, err)

	title, err := f.GetCellValue(MonthlyReport.Name, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Variation entre 15/01/2024 et 15/02/2024", title)

	message, err := f.GetCellValue(MonthlyReport.Name, "A3")
	require.NoError(t, err)
	assert.Equal(t, noVariationMessage, message)

	merges, err := f.GetMergeCells(MonthlyReport.Name)
	require.NoError(t, err)
	assert.Len(t, merges, 2, "title row and message row are both merged")
}

func TestReportWriterReplacesPrefixedSheets(t *testing.T) {
	f := reportTestWorkbook(t)
	_, err := f.NewSheet("Suivi Mensuel")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Suivi Mensuel", "Z9", "stale"))
	_, err = f.NewSheet("suivi mensuel 2")
	require.NoError(t, err)
	_, err = f.NewSheet("Suivi Semestriel")
	require.NoError(t, err)

	report := domain.VariationReport{
		CurrentLabel:  "15/02/2024",
		PreviousLabel: "15/01/2024",
		Offset:        1,
		Available:     true,
	}
	err = NewReportWriter(nil).Write(context.Background(), f, MonthlyReport, report)
	require.NoError(t, err)

	names := f.GetSheetList()
	assert.Contains(t, names, "Suivi Mensuel")
	assert.NotContains(t, names, "suivi mensuel 2")
	assert.Contains(t, names, "Suivi Semestriel", "other report families stay untouched")

	stale, err := f.GetCellValue("Suivi Mensuel", "Z9")
	require.NoError(t, err)
	assert.Empty(t, stale, "recreated sheet starts from scratch")
}
