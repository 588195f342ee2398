package domain

import (
	"time"
)

// TreatmentID identifies one entry of the treatment catalog.
type TreatmentID string

const (
	TreatmentSuiviStock     TreatmentID = "suivi-stock"
	TreatmentSuiviCommandes TreatmentID = "suivi-commandes"
	TreatmentSuiviRetours   TreatmentID = "suivi-retours"
)

// Treatment describes one catalog entry. Catalog entries may be declared
// before they are implemented; only implemented treatments accept runs.
type Treatment struct {
	ID          TreatmentID `json:"id" validate:"required"`
	Label       string      `json:"label" validate:"required"`
	Description string      `json:"description,omitempty"`
	Implemented bool        `json:"implemented"`
}

// TreatmentParams is the caller-supplied parameter payload of a run.
type TreatmentParams struct {
	ExportDate string `json:"export_date" validate:"required"`
}

// TreatmentRequest carries the staged inputs of one treatment run.
type TreatmentRequest struct {
	Treatment    TreatmentID `json:"treatment" validate:"required"`
	TrackingPath string      `json:"tracking_path" validate:"required"`
	ExportPath   string      `json:"export_path" validate:"required"`
	ExportDate   string      `json:"export_date" validate:"required"`
}

// TreatmentResult summarizes one completed run.
type TreatmentResult struct {
	Treatment         TreatmentID   `json:"treatment"`
	ColumnLabel       string        `json:"column_label"`
	OutputPath        string        `json:"output_path"`
	RowsUpdated       int           `json:"rows_updated"`
	RowsInserted      int           `json:"rows_inserted"`
	MonthlyRecords    int           `json:"monthly_records"`
	SemestrialRecords int           `json:"semestrial_records"`
	Duration          time.Duration `json:"duration"`
}
