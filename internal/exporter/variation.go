package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"suivistock/internal/config"
	"suivistock/pkg/contracts/domain"
)

// VariationExporter writes the variation record sets computed by a
// treatment run as CSV files next to the workbook outputs. The workbook
// stays the contract output; these files are a convenience copy.
type VariationExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
	logger    *slog.Logger
}

// NewVariationExporter creates a new variation CSV exporter
func NewVariationExporter(paths *config.Paths, logger *slog.Logger) *VariationExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &VariationExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
		logger:    logger.With(slog.String("component", "variation_exporter")),
	}
}

// Export writes one report's records as variation_<slug>_<label>.csv in the
// reports directory, date label slashes flattened to dashes. An unavailable
// report writes nothing and returns an empty path; an available report with
// no records writes a header-only file, mirroring the workbook sheet that
// renders for it.
func (e *VariationExporter) Export(ctx context.Context, slug string, report domain.VariationReport) (string, error) {
	if !report.Available {
		e.logger.DebugContext(ctx, "variation report unavailable, skipping CSV export",
			slog.String("slug", slug),
			slog.String("current_label", report.CurrentLabel),
			slog.Int("offset", report.Offset))
		return "", nil
	}

	fullPath := e.paths.GetVariationCSVPath(slug, report.CurrentLabel)

	records := report.Records
	if records == nil {
		records = []domain.VariationRecord{}
	}

	if err := e.csvWriter.WriteRecords(fullPath, records); err != nil {
		return "", fmt.Errorf("export variation CSV %q: %w", slug, err)
	}

	e.logger.InfoContext(ctx, "variation CSV exported",
		slog.String("slug", slug),
		slog.String("path", fullPath),
		slog.String("previous_label", report.PreviousLabel),
		slog.String("current_label", report.CurrentLabel),
		slog.Int("records", len(report.Records)))

	return fullPath, nil
}
