package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"suivistock/internal/dates"
	"suivistock/internal/tracking"
)

// Treatment-specific errors (using errors package for sentinel errors)
var (
	ErrUnknownTreatment        = errors.New("unknown treatment")
	ErrTreatmentNotImplemented = errors.New("treatment not implemented")
	ErrMissingTrackingFile     = errors.New("tracking file missing from request")
	ErrMissingExportFile       = errors.New("export file missing from request")
	ErrMissingParams           = errors.New("params field missing from request")
	ErrMissingExportDate       = errors.New("export_date missing from params")
)

// MapTreatmentError maps treatment domain errors to HTTP problem details
func MapTreatmentError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/treatments#trace-%s", traceID)

	var dupErr *tracking.DuplicateImportError
	if errors.As(err, &dupErr) {
		return NewProblemDetails(
			http.StatusConflict,
			"/errors/treatment/duplicate-import",
			"Export Already Imported",
			fmt.Sprintf("An export dated %s has already been imported into this tracking file.", dupErr.Label),
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "DUPLICATE_IMPORT").
			WithExtension("column_label", dupErr.Label)
	}

	var sheetErr *tracking.StockListNotFoundError
	if errors.As(err, &sheetErr) {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			"/errors/treatment/stock-list-missing",
			"Stock List Sheet Missing",
			fmt.Sprintf("The tracking workbook has no sheet named %q.", tracking.SheetStockList),
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "STOCK_LIST_NOT_FOUND").
			WithExtension("required_sheet", tracking.SheetStockList).
			WithExtension("sheets_found", sheetErr.Sheets)
	}

	var dateErr *dates.InvalidDateFormatError
	if errors.As(err, &dateErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/treatment/invalid-export-date",
			"Invalid Export Date",
			dateErr.Error(),
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INVALID_EXPORT_DATE").
			WithExtension("value", dateErr.Value).
			WithExtension("accepted_formats", []string{"YYYY-MM-DD", "DD/MM/YYYY"})
	}

	switch {
	case errors.Is(err, ErrUnknownTreatment):
		return NewProblemDetails(
			http.StatusNotFound,
			"/errors/treatment/not-found",
			"Treatment Not Found",
			"No treatment with this identifier exists. See GET /api/treatments for the catalog.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "TREATMENT_NOT_FOUND")

	case errors.Is(err, ErrTreatmentNotImplemented):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			"/errors/treatment/not-implemented",
			"Treatment Not Implemented",
			"This treatment is listed in the catalog but is not implemented yet.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "TREATMENT_NOT_IMPLEMENTED")

	case errors.Is(err, ErrMissingTrackingFile):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/treatment/missing-file",
			"Tracking File Missing",
			"The multipart request must carry the tracking workbook in the \"suivi\" field.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "MISSING_REQUIRED_FILE").
			WithExtension("field", "suivi")

	case errors.Is(err, ErrMissingExportFile):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/treatment/missing-file",
			"Export File Missing",
			"The multipart request must carry the export workbook in the \"export\" field.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "MISSING_REQUIRED_FILE").
			WithExtension("field", "export")

	case errors.Is(err, ErrMissingParams):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/treatment/missing-parameter",
			"Parameters Missing",
			"The multipart request must carry a JSON \"params\" field.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "MISSING_REQUIRED_PARAMETER").
			WithExtension("field", "params")

	case errors.Is(err, ErrMissingExportDate):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/treatment/missing-parameter",
			"Export Date Missing",
			"The \"params\" payload must carry a non-empty \"export_date\".",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "MISSING_REQUIRED_PARAMETER").
			WithExtension("field", "export_date")

	case errors.Is(err, context.DeadlineExceeded):
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			"/errors/timeout",
			"Treatment Timeout",
			"The treatment took too long to complete and was cancelled.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "TREATMENT_TIMEOUT")

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/internal-error",
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}
