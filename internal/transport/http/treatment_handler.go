package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"suivistock/internal/config"
	apierrors "suivistock/internal/errors"
	"suivistock/internal/files"
	"suivistock/internal/infrastructure"
	custommw "suivistock/internal/middleware"
	"suivistock/internal/validation"
	api "suivistock/pkg/contracts/api/v1"
	"suivistock/pkg/contracts/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TreatmentHandler serves the treatment catalog and runs treatments from
// multipart uploads. A run stages both workbooks to disk, delegates to the
// service, streams the produced workbook back, and removes every file it
// created before returning.
type TreatmentHandler struct {
	service      TreatmentServiceInterface
	validator    *validation.FileValidator
	fileManager  *files.Manager
	config       *config.Config
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewTreatmentHandler creates a treatment handler with all dependencies.
func NewTreatmentHandler(service TreatmentServiceInterface, validator *validation.FileValidator, fileManager *files.Manager, cfg *config.Config, logger *slog.Logger) *TreatmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TreatmentHandler{
		service:      service,
		validator:    validator,
		fileManager:  fileManager,
		config:       cfg,
		logger:       logger.With(slog.String("component", "treatment_handler")),
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// Routes returns the treatment API routes.
func (h *TreatmentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListTreatments)
	r.Post("/{treatment}", custommw.TreatmentTraceHandler(h.RunTreatment))

	return r
}

// ListTreatments returns the treatment catalog, implemented or not.
func (h *TreatmentHandler) ListTreatments(w http.ResponseWriter, r *http.Request) {
	treatments := h.service.Catalog(r.Context())

	render.JSON(w, r, api.TreatmentListResponse{
		Treatments: treatments,
		Count:      len(treatments),
	})
}

// RunTreatment executes the named treatment against the uploaded workbooks.
// The request is multipart/form-data with file fields "suivi" and "export"
// and a "params" field carrying a JSON document with the export date. On
// success the updated workbook is returned as an attachment unless the
// caller asked for JSON, in which case a run summary is returned instead.
// Staged uploads and the produced workbook are deleted once the response
// has been written, whatever the outcome.
func (h *TreatmentHandler) RunTreatment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	treatmentID := chi.URLParam(r, "treatment")
	reqID := middleware.GetReqID(ctx)

	h.logger.InfoContext(ctx, "running treatment",
		slog.String("request_id", reqID),
		slog.String("treatment", treatmentID),
	)

	// Reject unknown or unimplemented treatments before touching the body.
	if _, err := h.service.Lookup(ctx, domain.TreatmentID(treatmentID)); err != nil {
		h.renderTreatmentError(w, r, err)
		return
	}

	// Two workbooks plus a small params field; anything beyond that is
	// either an oversized upload or junk.
	maxBody := 2*h.config.Upload.MaxFileSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.UploadTooLargeError(h.config.Upload.MaxFileSize))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	params, err := h.parseParams(r)
	if err != nil {
		h.renderTreatmentError(w, r, err)
		return
	}

	trackingPath, err := h.stageUpload(r, "suivi", apierrors.ErrMissingTrackingFile)
	if err != nil {
		h.renderTreatmentError(w, r, err)
		return
	}
	exportPath, err := h.stageUpload(r, "export", apierrors.ErrMissingExportFile)
	if err != nil {
		h.cleanupUploads(trackingPath)
		h.renderTreatmentError(w, r, err)
		return
	}
	defer h.cleanupUploads(trackingPath, exportPath)

	result, err := h.service.Run(ctx, domain.TreatmentRequest{
		Treatment:    domain.TreatmentID(treatmentID),
		TrackingPath: trackingPath,
		ExportPath:   exportPath,
		ExportDate:   params.ExportDate,
	})
	if err != nil {
		h.renderTreatmentError(w, r, err)
		return
	}
	defer h.fileManager.CleanupAll(result.OutputPath)

	h.logger.InfoContext(ctx, "treatment completed",
		slog.String("request_id", reqID),
		slog.String("treatment", treatmentID),
		slog.String("column_label", result.ColumnLabel),
		slog.Int("rows_updated", result.RowsUpdated),
		slog.Int("rows_inserted", result.RowsInserted),
		slog.Duration("duration", result.Duration),
	)

	if acceptsJSON(r) {
		render.JSON(w, r, api.RunTreatmentResponse{
			Treatment:         string(result.Treatment),
			ColumnLabel:       result.ColumnLabel,
			RowsUpdated:       result.RowsUpdated,
			RowsInserted:      result.RowsInserted,
			MonthlyRecords:    result.MonthlyRecords,
			SemestrialRecords: result.SemestrialRecords,
			DurationMs:        result.Duration.Milliseconds(),
		})
		return
	}

	h.serveWorkbook(w, r, result.OutputPath)
}

// parseParams decodes the params form field. The field itself and the
// export date inside it are both required.
func (h *TreatmentHandler) parseParams(r *http.Request) (*api.RunTreatmentParams, error) {
	raw := strings.TrimSpace(r.FormValue("params"))
	if raw == "" {
		return nil, apierrors.ErrMissingParams
	}

	var params api.RunTreatmentParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("decode params: %w", apierrors.ErrMissingParams)
	}
	if strings.TrimSpace(params.ExportDate) == "" {
		return nil, apierrors.ErrMissingExportDate
	}

	return &params, nil
}

// stageUpload validates one multipart file field and copies it into the
// uploads directory. missingErr is returned when the field is absent.
func (h *TreatmentHandler) stageUpload(r *http.Request, field string, missingErr error) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", missingErr
		}
		return "", fmt.Errorf("read %s field: %w", field, err)
	}
	defer file.Close()

	if err := h.validator.ValidateUploadHeader(field, header); err != nil {
		return "", err
	}

	path, err := h.fileManager.StageUpload(field, header.Filename, file)
	if err != nil {
		return "", fmt.Errorf("stage %s upload: %w", field, err)
	}

	return path, nil
}

// cleanupUploads removes staged uploads unless the configuration asks to
// keep them for debugging.
func (h *TreatmentHandler) cleanupUploads(paths ...string) {
	if h.config.Upload.KeepUploads {
		return
	}
	h.fileManager.CleanupAll(paths...)
}

// serveWorkbook streams the produced workbook as an attachment.
func (h *TreatmentHandler) serveWorkbook(w http.ResponseWriter, r *http.Request, path string) {
	if !h.fileManager.FileExists(path) {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("output workbook"))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// renderTreatmentError maps an error from the run pipeline to its HTTP
// response. Upload validation failures carry their own API error types;
// everything else goes through the shared treatment error mapping so
// every failure mode has exactly one problem document.
func (h *TreatmentHandler) renderTreatmentError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *validation.FileTooLargeError
	if errors.As(err, &tooLarge) {
		h.errorHandler.HandleError(w, r, apierrors.UploadTooLargeError(tooLarge.Max))
		return
	}
	var badExt *validation.UnsupportedExtensionError
	if errors.As(err, &badExt) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", err.Error()))
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())
	h.logger.WarnContext(r.Context(), "treatment request rejected",
		slog.String("treatment", chi.URLParam(r, "treatment")),
		slog.String("error", err.Error()),
	)

	if rendErr := render.Render(w, r, apierrors.MapTreatmentError(err, traceID)); rendErr != nil {
		h.logger.ErrorContext(r.Context(), "failed to render problem response",
			slog.String("error", rendErr.Error()))
	}
}

// acceptsJSON reports whether the caller explicitly asked for a JSON run
// summary instead of the workbook attachment.
func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
