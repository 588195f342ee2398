package services

import (
	"context"
	"log/slog"

	"suivistock/internal/infrastructure"
)

// Helper functions for treatment service logging using centralized infrastructure logger

// logTreatmentError logs an error in treatment service operations
func logTreatmentError(ctx context.Context, action, message string, attrs ...slog.Attr) {
	logger := infrastructure.LoggerWithContext(ctx)

	allAttrs := []slog.Attr{
		slog.String("component", "treatment_service"),
		slog.String("action", action),
	}
	allAttrs = append(allAttrs, attrs...)

	logger.LogAttrs(ctx, slog.LevelError, message, allAttrs...)
}

// logTreatmentWarn logs a warning in treatment service operations
func logTreatmentWarn(ctx context.Context, action, message string, attrs ...slog.Attr) {
	logger := infrastructure.LoggerWithContext(ctx)

	allAttrs := []slog.Attr{
		slog.String("component", "treatment_service"),
		slog.String("action", action),
	}
	allAttrs = append(allAttrs, attrs...)

	logger.LogAttrs(ctx, slog.LevelWarn, message, allAttrs...)
}

// logTreatmentInfo logs informational messages for treatment operations
func logTreatmentInfo(ctx context.Context, action, message string, attrs ...slog.Attr) {
	logger := infrastructure.LoggerWithContext(ctx)

	allAttrs := []slog.Attr{
		slog.String("component", "treatment_service"),
		slog.String("action", action),
	}
	allAttrs = append(allAttrs, attrs...)

	logger.LogAttrs(ctx, slog.LevelInfo, message, allAttrs...)
}
