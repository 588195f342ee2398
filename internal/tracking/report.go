package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"suivistock/pkg/contracts/domain"
)

// reportColumns is the fixed width of a report sheet.
const reportColumns = 6

// French presentation strings of the report sheets.
const (
	reportTitleFormat  = "Variation entre %s et %s"
	noVariationMessage = "Aucune variation pour cette période"
)

// reportHeaders is the fixed 6-column header of a populated report.
var reportHeaders = [reportColumns]string{
	"Code Article",
	"Désignation",
	"Code Magasin",
	"Magasin",
	"Variation",
	"Quantité Actuelle",
}

// reportColWidths sizes the report columns, in header order.
var reportColWidths = [reportColumns]float64{16, 38, 14, 28, 12, 18}

// ReportSheet names one derived report sheet, the lookback it renders, the
// wording used when that lookback is unavailable and the slug its CSV
// export files carry.
type ReportSheet struct {
	Name          string
	Slug          string
	Offset        int
	NoDataMessage string
}

// The two derived report sheets. Sheet replacement matches by
// case-insensitive name prefix, so earlier variants like "suivi mensuel
// (2)" are destroyed too.
var (
	MonthlyReport = ReportSheet{
		Name:          "Suivi Mensuel",
		Slug:          "mensuelle",
		Offset:        1,
		NoDataMessage: "Aucune donnée disponible pour le mois précédent",
	}
	SemestrialReport = ReportSheet{
		Name:          "Suivi Semestriel",
		Slug:          "semestrielle",
		Offset:        6,
		NoDataMessage: "Aucune donnée disponible pour le semestre précédent",
	}
)

// ReportSheets lists the derived sheets in generation order.
func ReportSheets() []ReportSheet {
	return []ReportSheet{MonthlyReport, SemestrialReport}
}

// ReportWriter renders variation reports into workbook sheets with
// destroy-and-recreate semantics: report sheets are derived views and are
// fully regenerated on every run, never patched.
type ReportWriter struct {
	logger *slog.Logger
}

// NewReportWriter creates a report writer.
func NewReportWriter(logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportWriter{logger: logger.With(slog.String("component", "report_writer"))}
}

// Write replaces sheet's report in f with a rendering of report. Any
// existing sheet whose name starts with sheet.Name, case-insensitively, is
// deleted first. An unavailable report renders as a single message row, an
// available-but-empty one as title, headers and a merged no-variation row.
func (w *ReportWriter) Write(ctx context.Context, f *excelize.File, sheet ReportSheet, report domain.VariationReport) error {
	if err := w.removeMatching(f, sheet.Name); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheet.Name); err != nil {
		return fmt.Errorf("create report sheet %q: %w", sheet.Name, err)
	}

	styles, err := newReportStyles(f)
	if err != nil {
		return fmt.Errorf("build report styles: %w", err)
	}

	for c := 0; c < reportColumns; c++ {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, name, name, reportColWidths[c]); err != nil {
			return err
		}
	}

	if !report.Available {
		if err := w.writeMergedRow(f, sheet.Name, 1, sheet.NoDataMessage, styles.title); err != nil {
			return err
		}
		w.logger.InfoContext(ctx, "report rendered without data",
			slog.String("sheet", sheet.Name),
			slog.Int("offset", sheet.Offset))
		return nil
	}

	title := fmt.Sprintf(reportTitleFormat, report.PreviousLabel, report.CurrentLabel)
	if err := w.writeMergedRow(f, sheet.Name, 1, title, styles.title); err != nil {
		return err
	}

	for c := 0; c < reportColumns; c++ {
		cell, err := excelize.CoordinatesToCellName(c+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet.Name, cell, reportHeaders[c]); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet.Name, "A2", "F2", styles.header); err != nil {
		return err
	}

	if len(report.Records) == 0 {
		if err := w.writeMergedRow(f, sheet.Name, 3, noVariationMessage, styles.message); err != nil {
			return err
		}
		w.logger.InfoContext(ctx, "report rendered empty",
			slog.String("sheet", sheet.Name),
			slog.String("previous", report.PreviousLabel),
			slog.String("current", report.CurrentLabel))
		return nil
	}

	for i, record := range report.Records {
		rowIdx := i + 3
		values := []interface{}{
			record.ArticleCode,
			record.Description,
			record.LocationCode,
			record.LocationDescription,
			record.Variation,
			record.Current,
		}
		for c, value := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
				return err
			}
		}
	}

	lastRow := len(report.Records) + 2
	if err := f.SetCellStyle(sheet.Name, "A3", fmt.Sprintf("F%d", lastRow), styles.data); err != nil {
		return err
	}
	for i, record := range report.Records {
		var tierStyle int
		switch record.Tier() {
		case domain.TierCritical:
			tierStyle = styles.critical
		case domain.TierLow:
			tierStyle = styles.low
		default:
			continue
		}
		cell := fmt.Sprintf("F%d", i+3)
		if err := f.SetCellStyle(sheet.Name, cell, cell, tierStyle); err != nil {
			return err
		}
	}

	w.logger.InfoContext(ctx, "report rendered",
		slog.String("sheet", sheet.Name),
		slog.String("previous", report.PreviousLabel),
		slog.String("current", report.CurrentLabel),
		slog.Int("records", len(report.Records)))

	return nil
}

// removeMatching deletes every sheet whose name starts with prefix,
// case-insensitively. The stock list sheet always remains, so the workbook
// never loses its last sheet.
func (w *ReportWriter) removeMatching(f *excelize.File, prefix string) error {
	lowered := strings.ToLower(prefix)
	for _, name := range f.GetSheetList() {
		if !strings.HasPrefix(strings.ToLower(name), lowered) {
			continue
		}
		if err := f.DeleteSheet(name); err != nil {
			return fmt.Errorf("delete report sheet %q: %w", name, err)
		}
	}
	return nil
}

// writeMergedRow merges the report's six columns on rowIdx and writes one
// styled message into the merged cell.
func (w *ReportWriter) writeMergedRow(f *excelize.File, sheetName string, rowIdx int, text string, styleID int) error {
	first, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(reportColumns, rowIdx)
	if err != nil {
		return err
	}
	if err := f.MergeCell(sheetName, first, last); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, first, text); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, first, last, styleID); err != nil {
		return err
	}
	return f.SetRowHeight(sheetName, rowIdx, 24)
}

// reportStyles holds the style IDs used by one rendering pass.
type reportStyles struct {
	title    int
	header   int
	message  int
	data     int
	critical int
	low      int
}

func newReportStyles(f *excelize.File) (reportStyles, error) {
	var s reportStyles
	var err error

	thinBorders := []excelize.Border{
		{Type: "left", Color: "9B9B9B", Style: 1},
		{Type: "right", Color: "9B9B9B", Style: 1},
		{Type: "top", Color: "9B9B9B", Style: 1},
		{Type: "bottom", Color: "9B9B9B", Style: 1},
	}

	s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, err
	}

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders,
	})
	if err != nil {
		return s, err
	}

	s.message, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Size: 11, Color: "404040"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, err
	}

	s.data, err = f.NewStyle(&excelize.Style{
		Border: thinBorders,
	})
	if err != nil {
		return s, err
	}

	s.critical, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "9C0006"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
		Border: thinBorders,
	})
	if err != nil {
		return s, err
	}

	s.low, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "9C6500"},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFEB9C"}},
		Border: thinBorders,
	})
	if err != nil {
		return s, err
	}

	return s, nil
}
