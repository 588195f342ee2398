package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{
			name:     "parsing error type",
			errType:  ErrTypeParsing,
			expected: "PARSING",
		},
		{
			name:     "storage error type",
			errType:  ErrTypeStorage,
			expected: "STORAGE",
		},
		{
			name:     "validation error type",
			errType:  ErrTypeValidation,
			expected: "VALIDATION",
		},
		{
			name:     "not found error type",
			errType:  ErrTypeNotFound,
			expected: "NOT_FOUND",
		},
		{
			name:     "permission error type",
			errType:  ErrTypePermission,
			expected: "PERMISSION",
		},
		{
			name:     "config error type",
			errType:  ErrTypeConfig,
			expected: "CONFIG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "Export date is required",
				Cause:   nil,
			},
			wantMessage: "[VALIDATION] Export date is required",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeParsing,
				Message: "Failed to read export workbook",
				Cause:   fmt.Errorf("zip: not a valid zip file"),
			},
			wantMessage: "[PARSING] Failed to read export workbook: zip: not a valid zip file",
		},
		{
			name: "error with wrapped cause",
			appError: &AppError{
				Type:    ErrTypeStorage,
				Message: "Failed to save output workbook",
				Cause:   errors.New("disk full"),
			},
			wantMessage: "[STORAGE] Failed to save output workbook: disk full",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type:    ErrTypeValidation,
				Message: "",
				Cause:   nil,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			assert.Equal(t, tt.wantMessage, got)
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		wantErr  error
	}{
		{
			name: "unwrap with cause",
			appError: &AppError{
				Type:    ErrTypeParsing,
				Message: "Parsing error",
				Cause:   fmt.Errorf("original error"),
			},
			wantErr: fmt.Errorf("original error"),
		},
		{
			name: "unwrap without cause",
			appError: &AppError{
				Type:    ErrTypeStorage,
				Message: "Storage error",
				Cause:   nil,
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Unwrap()
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr.Error(), got.Error())
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestAppError_ErrorsIs(t *testing.T) {
	sentinel := errors.New("file does not exist")
	appErr := NewStorageError("Failed to open tracking workbook", sentinel)

	assert.True(t, errors.Is(appErr, sentinel))
	assert.False(t, errors.Is(appErr, errors.New("other error")))
}

func TestAppError_ErrorsAs(t *testing.T) {
	appErr := NewParsingError("Failed to parse row", nil)
	wrapped := fmt.Errorf("treatment failed: %w", appErr)

	var target *AppError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, ErrTypeParsing, target.Type)
	assert.Equal(t, "Failed to parse row", target.Message)
}

func TestAppError_WithContext(t *testing.T) {
	t.Run("adds context to initialized map", func(t *testing.T) {
		appErr := NewStorageError("Failed to save", nil)
		appErr.WithContext("path", "data/outputs/suivi.xlsx")

		require.NotNil(t, appErr.Context)
		assert.Equal(t, "data/outputs/suivi.xlsx", appErr.Context["path"])
	})

	t.Run("initializes nil context map", func(t *testing.T) {
		appErr := &AppError{
			Type:    ErrTypeConfig,
			Message: "Bad config",
		}
		appErr.WithContext("key", "value")

		require.NotNil(t, appErr.Context)
		assert.Equal(t, "value", appErr.Context["key"])
	})

	t.Run("chains multiple contexts", func(t *testing.T) {
		appErr := NewParsingError("Bad sheet", nil).
			WithContext("sheet", "Liste de Stock").
			WithContext("row", 42)

		assert.Equal(t, "Liste de Stock", appErr.Context["sheet"])
		assert.Equal(t, 42, appErr.Context["row"])
	})
}

func TestNewAppError(t *testing.T) {
	cause := errors.New("underlying")
	appErr := NewAppError(ErrTypeValidation, "Bad input", cause)

	require.NotNil(t, appErr)
	assert.Equal(t, ErrTypeValidation, appErr.Type)
	assert.Equal(t, "Bad input", appErr.Message)
	assert.Equal(t, cause, appErr.Cause)
	assert.NotNil(t, appErr.Context)
}

func TestAppErrorHelpers(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name      string
		build     func() *AppError
		wantType  ErrorType
		wantMsg   string
		wantCause error
	}{
		{
			name:      "parsing error",
			build:     func() *AppError { return NewParsingError("parse failed", cause) },
			wantType:  ErrTypeParsing,
			wantMsg:   "parse failed",
			wantCause: cause,
		},
		{
			name:      "storage error",
			build:     func() *AppError { return NewStorageError("write failed", cause) },
			wantType:  ErrTypeStorage,
			wantMsg:   "write failed",
			wantCause: cause,
		},
		{
			name:     "validation error",
			build:    func() *AppError { return NewAppValidationError("invalid field") },
			wantType: ErrTypeValidation,
			wantMsg:  "invalid field",
		},
		{
			name:     "not found error",
			build:    func() *AppError { return NewNotFoundError("treatment") },
			wantType: ErrTypeNotFound,
			wantMsg:  "treatment not found",
		},
		{
			name:     "permission error",
			build:    func() *AppError { return NewPermissionError("access denied") },
			wantType: ErrTypePermission,
			wantMsg:  "access denied",
		},
		{
			name:      "config error",
			build:     func() *AppError { return NewConfigError("bad port", cause) },
			wantType:  ErrTypeConfig,
			wantMsg:   "bad port",
			wantCause: cause,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := tt.build()
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.Equal(t, tt.wantCause, appErr.Cause)
		})
	}
}
