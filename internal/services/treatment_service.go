package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"suivistock/internal/config"
	"suivistock/internal/dates"
	apierrors "suivistock/internal/errors"
	"suivistock/internal/exporter"
	"suivistock/internal/infrastructure"
	"suivistock/internal/tracking"
	"suivistock/pkg/contracts/domain"
	"suivistock/pkg/contracts/events"
)

// StatusBroadcaster publishes treatment lifecycle events to connected
// WebSocket clients. The hub implements it; a nil broadcaster (CLI runs)
// disables broadcasting.
type StatusBroadcaster interface {
	BroadcastTreatmentStatusWithTrace(status events.TreatmentStatus, traceID string)
}

// TreatmentService runs the treatments of the catalog against staged
// workbook files. It owns the catalog and the whole merge-and-report
// pipeline; handlers and CLI commands only stage inputs and render results.
type TreatmentService struct {
	config      *config.Config
	paths       *config.Paths
	aggregator  *tracking.Aggregator
	merger      *tracking.Merger
	reports     *tracking.ReportWriter
	csvExporter *exporter.VariationExporter
	broadcaster StatusBroadcaster
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger
}

// NewTreatmentService creates a new treatment service using default logger
func NewTreatmentService(cfg *config.Config) (*TreatmentService, error) {
	return NewTreatmentServiceWithLogger(cfg, slog.Default())
}

// NewTreatmentServiceWithLogger creates a new treatment service with a specific logger
func NewTreatmentServiceWithLogger(cfg *config.Config, logger *slog.Logger) (*TreatmentService, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	return NewTreatmentServiceWithPaths(cfg, paths, logger), nil
}

// NewTreatmentServiceWithPaths creates a new treatment service with injected paths
func NewTreatmentServiceWithPaths(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *TreatmentService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("TreatmentService initialized with paths",
		slog.String("uploads_dir", paths.UploadsDir),
		slog.String("outputs_dir", paths.OutputsDir),
		slog.String("reports_dir", paths.ReportsDir),
		slog.Int("insert_batch_size", cfg.Treatment.InsertBatchSize))

	return &TreatmentService{
		config:     cfg,
		paths:      paths,
		aggregator: tracking.NewAggregator(logger),
		merger: tracking.NewMerger(logger, tracking.MergerConfig{
			BatchSize: cfg.Treatment.InsertBatchSize,
		}),
		reports:     tracking.NewReportWriter(logger),
		csvExporter: exporter.NewVariationExporter(paths, logger),
		logger:      logger,
	}
}

// SetBroadcaster attaches the WebSocket hub used for lifecycle events.
// Must be called before Run; a nil broadcaster keeps broadcasting off.
func (s *TreatmentService) SetBroadcaster(b StatusBroadcaster) {
	s.broadcaster = b
}

// SetMetrics attaches the OTel business metrics recorded per run.
func (s *TreatmentService) SetMetrics(m *infrastructure.BusinessMetrics) {
	s.metrics = m
}

// Catalog returns the declared treatments. Entries may be declared before
// they are implemented; Run rejects those with ErrTreatmentNotImplemented.
func (s *TreatmentService) Catalog(ctx context.Context) []domain.Treatment {
	return []domain.Treatment{
		{
			ID:          domain.TreatmentSuiviStock,
			Label:       "Suivi de Stock",
			Description: "Fusionne un export d'inventaire dans le classeur de suivi et régénère les rapports de variation mensuel et semestriel",
			Implemented: true,
		},
		{
			ID:          domain.TreatmentSuiviCommandes,
			Label:       "Suivi des Commandes",
			Description: "Suivi des commandes fournisseurs",
			Implemented: false,
		},
		{
			ID:          domain.TreatmentSuiviRetours,
			Label:       "Suivi des Retours",
			Description: "Suivi des retours de matériel",
			Implemented: false,
		},
	}
}

// Lookup resolves a treatment ID against the catalog. Unknown IDs return
// ErrUnknownTreatment; declared-but-unimplemented ones return
// ErrTreatmentNotImplemented.
func (s *TreatmentService) Lookup(ctx context.Context, id domain.TreatmentID) (*domain.Treatment, error) {
	for _, t := range s.Catalog(ctx) {
		if t.ID == id {
			if !t.Implemented {
				return nil, fmt.Errorf("treatment %q: %w", id, apierrors.ErrTreatmentNotImplemented)
			}
			treatment := t
			return &treatment, nil
		}
	}
	return nil, fmt.Errorf("treatment %q: %w", id, apierrors.ErrUnknownTreatment)
}

// Run executes one treatment against the staged tracking and export
// workbooks and returns the run summary. The date label is normalized
// before any workbook is touched, and the tracking workbook is only
// written once the merge and both reports have succeeded, so a failed run
// leaves no partial output behind.
func (s *TreatmentService) Run(ctx context.Context, req domain.TreatmentRequest) (*domain.TreatmentResult, error) {
	start := time.Now()

	if _, err := s.Lookup(ctx, req.Treatment); err != nil {
		logTreatmentError(ctx, "lookup", "treatment rejected",
			slog.String("treatment", string(req.Treatment)),
			slog.String("error", err.Error()))
		return nil, err
	}

	label, err := dates.Normalize(req.ExportDate)
	if err != nil {
		logTreatmentError(ctx, "normalize_date", "export date rejected",
			slog.String("treatment", string(req.Treatment)),
			slog.String("export_date", req.ExportDate),
			slog.String("error", err.Error()))
		return nil, err
	}

	ctx, span := otel.Tracer("suivistock.treatment").Start(ctx, "treatment.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("treatment.id", string(req.Treatment)),
			attribute.String("treatment.column_label", label),
		))
	defer span.End()

	logTreatmentInfo(ctx, "run", "treatment started",
		slog.String("treatment", string(req.Treatment)),
		slog.String("column_label", label),
		slog.String("tracking_path", req.TrackingPath),
		slog.String("export_path", req.ExportPath))

	s.broadcast(ctx, req.Treatment, label, events.StageStarted, "traitement démarré", "", start)

	result, err := s.execute(ctx, req, label, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.broadcast(ctx, req.Treatment, label, events.StageFailed, "", err.Error(), start)
		infrastructure.RecordTreatmentMetrics(ctx, s.metrics, string(req.Treatment), label, time.Since(start), false, err)
		logTreatmentError(ctx, "run", "treatment failed",
			slog.String("treatment", string(req.Treatment)),
			slog.String("column_label", label),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.broadcast(ctx, req.Treatment, label, events.StageCompleted,
		fmt.Sprintf("traitement terminé: %d lignes mises à jour, %d lignes insérées", result.RowsUpdated, result.RowsInserted),
		"", start)
	infrastructure.RecordTreatmentMetrics(ctx, s.metrics, string(req.Treatment), label, result.Duration, true, nil)
	infrastructure.RecordTreatmentRows(ctx, s.metrics, string(req.Treatment), int64(result.RowsUpdated), int64(result.RowsInserted))

	logTreatmentInfo(ctx, "run", "treatment completed",
		slog.String("treatment", string(req.Treatment)),
		slog.String("column_label", label),
		slog.String("output_path", result.OutputPath),
		slog.Int("rows_updated", result.RowsUpdated),
		slog.Int("rows_inserted", result.RowsInserted),
		slog.Int("monthly_records", result.MonthlyRecords),
		slog.Int("semestrial_records", result.SemestrialRecords),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// execute runs the pipeline once the treatment and date label have been
// validated: load, aggregate, merge, regenerate reports, save.
func (s *TreatmentService) execute(ctx context.Context, req domain.TreatmentRequest, label string, start time.Time) (*domain.TreatmentResult, error) {
	f, err := excelize.OpenFile(req.TrackingPath)
	if err != nil {
		return nil, fmt.Errorf("open tracking workbook: %w", err)
	}
	defer f.Close()

	table, err := tracking.LoadTable(f)
	if err != nil {
		return nil, err
	}

	agg, err := s.aggregateExport(ctx, req.ExportPath)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, req.Treatment, label, events.StageMerge, "fusion de l'export en cours", "", start)

	mergeCtx, mergeSpan := otel.Tracer("suivistock.treatment").Start(ctx, "treatment.merge",
		trace.WithAttributes(attribute.String("treatment.column_label", label)))
	mergeStart := time.Now()
	mergeResult, err := s.merger.Merge(mergeCtx, table, agg, label)
	infrastructure.RecordTreatmentStageMetrics(ctx, s.metrics, string(req.Treatment), "merge", time.Since(mergeStart), err == nil)
	if err != nil {
		mergeSpan.RecordError(err)
		mergeSpan.End()
		return nil, err
	}
	mergeSpan.SetAttributes(
		attribute.Int("merge.matched", mergeResult.Matched),
		attribute.Int("merge.zeroed", mergeResult.Zeroed),
		attribute.Int("merge.inserted", mergeResult.Inserted))
	mergeSpan.End()

	if err := table.WriteTo(f); err != nil {
		return nil, fmt.Errorf("write stock list: %w", err)
	}

	s.broadcast(ctx, req.Treatment, label, events.StageReports, "génération des rapports de variation", "", start)

	reportCtx, reportSpan := otel.Tracer("suivistock.treatment").Start(ctx, "treatment.report",
		trace.WithAttributes(attribute.String("treatment.column_label", label)))
	reportStart := time.Now()
	recordCounts, reports, err := s.writeReports(reportCtx, f, table, label)
	infrastructure.RecordTreatmentStageMetrics(ctx, s.metrics, string(req.Treatment), "reports", time.Since(reportStart), err == nil)
	if err != nil {
		reportSpan.RecordError(err)
		reportSpan.End()
		return nil, err
	}
	reportSpan.End()

	outputPath := s.paths.GetOutputWorkbookPath(label, uuid.NewString()[:8])
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("create outputs directory: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return nil, fmt.Errorf("save output workbook: %w", err)
	}

	if s.config.Treatment.ExportCSV {
		s.exportCSVs(ctx, reports)
	}

	return &domain.TreatmentResult{
		Treatment:         req.Treatment,
		ColumnLabel:       mergeResult.Label,
		OutputPath:        outputPath,
		RowsUpdated:       mergeResult.Matched + mergeResult.Zeroed,
		RowsInserted:      mergeResult.Inserted,
		MonthlyRecords:    recordCounts[tracking.MonthlyReport.Slug],
		SemestrialRecords: recordCounts[tracking.SemestrialReport.Slug],
		Duration:          time.Since(start),
	}, nil
}

// aggregateExport opens the export snapshot and collapses it into per-item
// counts.
func (s *TreatmentService) aggregateExport(ctx context.Context, exportPath string) (*tracking.ExportAggregate, error) {
	ef, err := excelize.OpenFile(exportPath)
	if err != nil {
		return nil, fmt.Errorf("open export workbook: %w", err)
	}
	defer ef.Close()

	return s.aggregator.AggregateWorkbook(ctx, ef)
}

// writeReports regenerates both derived report sheets and returns the
// record count and report per sheet slug.
func (s *TreatmentService) writeReports(ctx context.Context, f *excelize.File, table *tracking.Table, label string) (map[string]int, map[string]domain.VariationReport, error) {
	counts := make(map[string]int, 2)
	reports := make(map[string]domain.VariationReport, 2)

	for _, sheet := range tracking.ReportSheets() {
		report := tracking.BuildVariationReport(table, label, sheet.Offset)
		if err := s.reports.Write(ctx, f, sheet, report); err != nil {
			return nil, nil, fmt.Errorf("write report sheet %q: %w", sheet.Name, err)
		}
		counts[sheet.Slug] = len(report.Records)
		reports[sheet.Slug] = report
		infrastructure.RecordTreatmentVariationRecords(ctx, s.metrics, sheet.Slug, int64(len(report.Records)))
	}

	return counts, reports, nil
}

// exportCSVs writes the variation CSV copies. Failures are logged and
// swallowed: the workbook is the contract output, the CSVs a convenience.
func (s *TreatmentService) exportCSVs(ctx context.Context, reports map[string]domain.VariationReport) {
	for _, sheet := range tracking.ReportSheets() {
		report, ok := reports[sheet.Slug]
		if !ok {
			continue
		}
		if _, err := s.csvExporter.Export(ctx, sheet.Slug, report); err != nil {
			logTreatmentWarn(ctx, "export_csv", "variation CSV export failed",
				slog.String("slug", sheet.Slug),
				slog.String("error", err.Error()))
		}
	}
}

// broadcast publishes one lifecycle event when a hub is attached.
func (s *TreatmentService) broadcast(ctx context.Context, id domain.TreatmentID, label string, stage events.TreatmentStage, message, errMsg string, startedAt time.Time) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastTreatmentStatusWithTrace(events.TreatmentStatus{
		Treatment:   string(id),
		Stage:       stage,
		ColumnLabel: label,
		Message:     message,
		Error:       errMsg,
		StartedAt:   startedAt,
		UpdatedAt:   time.Now(),
	}, infrastructure.GetTraceID(ctx))
}
