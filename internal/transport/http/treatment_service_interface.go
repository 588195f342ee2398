package http

import (
	"context"

	"suivistock/pkg/contracts/domain"
)

// TreatmentServiceInterface defines the interface for treatment operations
type TreatmentServiceInterface interface {
	Catalog(ctx context.Context) []domain.Treatment
	Lookup(ctx context.Context, id domain.TreatmentID) (*domain.Treatment, error)
	Run(ctx context.Context, req domain.TreatmentRequest) (*domain.TreatmentResult, error)
}
