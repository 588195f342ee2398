// Package api contains API contract definitions for the SuiviStock service.
// Version v1 represents the current stable API version.
package api

import (
	"suivistock/pkg/contracts/domain"
)

// Treatment API

// RunTreatmentParams is the JSON payload of the multipart "params" field of
// a treatment run. ExportDate accepts 2006-01-02 or 02/01/2006.
type RunTreatmentParams struct {
	ExportDate string `json:"export_date" validate:"required"`
}

// RunTreatmentResponse reports the outcome of a treatment run when the
// caller asks for JSON instead of the workbook attachment.
type RunTreatmentResponse struct {
	Treatment         string `json:"treatment"`
	ColumnLabel       string `json:"column_label"`
	RowsUpdated       int    `json:"rows_updated"`
	RowsInserted      int    `json:"rows_inserted"`
	MonthlyRecords    int    `json:"monthly_records"`
	SemestrialRecords int    `json:"semestrial_records"`
	DurationMs        int64  `json:"duration_ms"`
}

// TreatmentListResponse is the catalog listing.
type TreatmentListResponse struct {
	Treatments []domain.Treatment `json:"treatments"`
	Count      int                `json:"count"`
}

// System API

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime,omitempty"`
}
