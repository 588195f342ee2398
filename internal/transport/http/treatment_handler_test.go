package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"suivistock/internal/config"
	apierrors "suivistock/internal/errors"
	"suivistock/internal/files"
	"suivistock/internal/shared/testutil"
	"suivistock/internal/tracking"
	"suivistock/internal/validation"
	"suivistock/pkg/contracts/domain"
)

// MockTreatmentService is a mock implementation of TreatmentServiceInterface
type MockTreatmentService struct {
	mock.Mock
}

func (m *MockTreatmentService) Catalog(ctx context.Context) []domain.Treatment {
	args := m.Called()
	return args.Get(0).([]domain.Treatment)
}

func (m *MockTreatmentService) Lookup(ctx context.Context, id domain.TreatmentID) (*domain.Treatment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Treatment), args.Error(1)
}

func (m *MockTreatmentService) Run(ctx context.Context, req domain.TreatmentRequest) (*domain.TreatmentResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TreatmentResult), args.Error(1)
}

func suiviStockTreatment() *domain.Treatment {
	return &domain.Treatment{
		ID:          domain.TreatmentSuiviStock,
		Label:       "Suivi de Stock",
		Implemented: true,
	}
}

func newTestTreatmentHandler(t *testing.T, service TreatmentServiceInterface, mutate func(*config.Config)) (*TreatmentHandler, *config.Paths) {
	t.Helper()

	root := t.TempDir()
	paths := &config.Paths{
		ExecutableDir: root,
		DataDir:       filepath.Join(root, "data"),
		UploadsDir:    filepath.Join(root, "data", "uploads"),
		OutputsDir:    filepath.Join(root, "data", "outputs"),
		ReportsDir:    filepath.Join(root, "data", "reports"),
		LogsDir:       filepath.Join(root, "logs"),
	}
	require.NoError(t, paths.EnsureDirectories())

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewTreatmentHandler(service, validation.NewFileValidator(cfg, logger), files.NewManager(paths), cfg, logger)
	return handler, paths
}

func treatmentWorkbooks(t *testing.T) ([]byte, []byte) {
	t.Helper()

	trackingBook := testutil.TrackingWorkbook(t, testutil.TrackingHeader())
	exportBook := testutil.ExportWorkbook(t, []interface{}{"ART-1", "MAG-1", "Article un", "Magasin un"})
	return trackingBook, exportBook
}

func postTreatment(handler *TreatmentHandler, target string, body *bytes.Buffer, contentType, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)
	return rec
}

func TestTreatmentHandler_ListTreatments(t *testing.T) {
	mockService := new(MockTreatmentService)
	mockService.On("Catalog").Return([]domain.Treatment{
		{ID: domain.TreatmentSuiviStock, Label: "Suivi de Stock", Implemented: true},
		{ID: domain.TreatmentSuiviCommandes, Label: "Suivi de Commandes", Implemented: false},
	})

	handler, _ := newTestTreatmentHandler(t, mockService, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
	assert.Contains(t, rec.Body.String(), `"suivi-stock"`)
	assert.Contains(t, rec.Body.String(), `"implemented":false`)
	mockService.AssertExpectations(t)
}

func TestTreatmentHandler_RunTreatment_Validation(t *testing.T) {
	trackingBook, exportBook := treatmentWorkbooks(t)
	params := `{"export_date":"2024-01-15"}`

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockTreatmentService)
		mutateConfig   func(*config.Config)
		files          []testutil.MultipartFile
		fields         map[string]string
		expectedStatus int
		expectedBody   []string
	}{
		{
			name:   "unknown treatment",
			target: "/mystery",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentID("mystery")).Return(nil, fmt.Errorf("treatment %q: %w", "mystery", apierrors.ErrUnknownTreatment))
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{"params": params},
			expectedStatus: http.StatusNotFound,
			expectedBody:   []string{"TREATMENT_NOT_FOUND"},
		},
		{
			name:   "unimplemented treatment",
			target: "/suivi-commandes",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviCommandes).Return(nil, fmt.Errorf("treatment %q: %w", "suivi-commandes", apierrors.ErrTreatmentNotImplemented))
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{"params": params},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   []string{"TREATMENT_NOT_IMPLEMENTED"},
		},
		{
			name:   "missing tracking file",
			target: "/suivi-stock",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
			},
			files: []testutil.MultipartFile{
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{"params": params},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"MISSING_REQUIRED_FILE", `"field":"suivi"`},
		},
		{
			name:   "missing export file",
			target: "/suivi-stock",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
			},
			fields:         map[string]string{"params": params},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"MISSING_REQUIRED_FILE", `"field":"export"`},
		},
		{
			name:   "missing params field",
			target: "/suivi-stock",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"MISSING_REQUIRED_PARAMETER", `"field":"params"`},
		},
		{
			name:   "malformed params payload",
			target: "/suivi-stock",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{"params": "not-json"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"MISSING_REQUIRED_PARAMETER"},
		},
		{
			name:   "blank export date",
			target: "/suivi-stock",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{"params": `{"export_date":"   "}`},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"MISSING_REQUIRED_PARAMETER", `"field":"export_date"`},
		},
		{
			name:   "unsupported extension",
			target: "/suivi-stock",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.csv", Content: trackingBook},
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{"params": params},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{"VALIDATION_FAILED"},
		},
		{
			name:   "file above size limit",
			target: "/suivi-stock",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
			},
			mutateConfig: func(cfg *config.Config) {
				cfg.Upload.MaxFileSize = 16
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{"params": params},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   []string{"PAYLOAD_TOO_LARGE"},
		},
		{
			name:   "duplicate import",
			target: "/suivi-stock",
			setupMock: func(m *MockTreatmentService) {
				m.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
				m.On("Run", mock.AnythingOfType("domain.TreatmentRequest")).
					Return(nil, fmt.Errorf("merge export: %w", &tracking.DuplicateImportError{Label: "15/01/2024"}))
			},
			files: []testutil.MultipartFile{
				{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
				{Field: "export", Filename: "export.xlsx", Content: exportBook},
			},
			fields:         map[string]string{"params": params},
			expectedStatus: http.StatusConflict,
			expectedBody:   []string{"DUPLICATE_IMPORT", "15/01/2024"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTreatmentService)
			tt.setupMock(mockService)

			handler, _ := newTestTreatmentHandler(t, mockService, tt.mutateConfig)

			body, contentType := testutil.MultipartBody(t, tt.files, tt.fields)
			rec := postTreatment(handler, tt.target, body, contentType, "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			for _, fragment := range tt.expectedBody {
				assert.Contains(t, rec.Body.String(), fragment)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTreatmentHandler_RunTreatment_StreamsWorkbook(t *testing.T) {
	trackingBook, exportBook := treatmentWorkbooks(t)
	workbookContent := []byte("updated workbook bytes")

	mockService := new(MockTreatmentService)
	handler, paths := newTestTreatmentHandler(t, mockService, nil)

	outputPath := filepath.Join(paths.OutputsDir, "suivi_stock_15-01-2024_abcd1234.xlsx")
	require.NoError(t, os.WriteFile(outputPath, workbookContent, 0644))

	var captured domain.TreatmentRequest
	var stagedAtRunTime bool
	mockService.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
	mockService.On("Run", mock.AnythingOfType("domain.TreatmentRequest")).
		Run(func(args mock.Arguments) {
			captured = args.Get(0).(domain.TreatmentRequest)
			_, trackErr := os.Stat(captured.TrackingPath)
			_, exportErr := os.Stat(captured.ExportPath)
			stagedAtRunTime = trackErr == nil && exportErr == nil
		}).
		Return(&domain.TreatmentResult{
			Treatment:    domain.TreatmentSuiviStock,
			ColumnLabel:  "15/01/2024",
			OutputPath:   outputPath,
			RowsUpdated:  3,
			RowsInserted: 1,
			Duration:     250 * time.Millisecond,
		}, nil)

	body, contentType := testutil.MultipartBody(t,
		[]testutil.MultipartFile{
			{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
			{Field: "export", Filename: "export.xlsx", Content: exportBook},
		},
		map[string]string{"params": `{"export_date":"2024-01-15"}`},
	)
	rec := postTreatment(handler, "/suivi-stock", body, contentType, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="suivi_stock_15-01-2024_abcd1234.xlsx"`)
	assert.Equal(t, workbookContent, rec.Body.Bytes())

	assert.Equal(t, "2024-01-15", captured.ExportDate)
	assert.True(t, strings.HasPrefix(captured.TrackingPath, paths.UploadsDir))
	assert.True(t, strings.HasPrefix(captured.ExportPath, paths.UploadsDir))
	assert.True(t, stagedAtRunTime, "staged uploads must exist while the treatment runs")

	// Uploads and the produced workbook are removed once the response is out.
	assert.NoFileExists(t, captured.TrackingPath)
	assert.NoFileExists(t, captured.ExportPath)
	assert.NoFileExists(t, outputPath)
	mockService.AssertExpectations(t)
}

func TestTreatmentHandler_RunTreatment_JSONSummary(t *testing.T) {
	trackingBook, exportBook := treatmentWorkbooks(t)

	mockService := new(MockTreatmentService)
	handler, paths := newTestTreatmentHandler(t, mockService, nil)

	outputPath := filepath.Join(paths.OutputsDir, "suivi_stock_15-01-2024_deadbeef.xlsx")
	require.NoError(t, os.WriteFile(outputPath, []byte("workbook"), 0644))

	mockService.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
	mockService.On("Run", mock.AnythingOfType("domain.TreatmentRequest")).
		Return(&domain.TreatmentResult{
			Treatment:         domain.TreatmentSuiviStock,
			ColumnLabel:       "15/01/2024",
			OutputPath:        outputPath,
			RowsUpdated:       3,
			RowsInserted:      1,
			MonthlyRecords:    2,
			SemestrialRecords: 1,
			Duration:          250 * time.Millisecond,
		}, nil)

	body, contentType := testutil.MultipartBody(t,
		[]testutil.MultipartFile{
			{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
			{Field: "export", Filename: "export.xlsx", Content: exportBook},
		},
		map[string]string{"params": `{"export_date":"2024-01-15"}`},
	)
	rec := postTreatment(handler, "/suivi-stock", body, contentType, "application/json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rec.Body.String(), `"column_label":"15/01/2024"`)
	assert.Contains(t, rec.Body.String(), `"rows_updated":3`)
	assert.Contains(t, rec.Body.String(), `"duration_ms":250`)

	assert.NoFileExists(t, outputPath)
	mockService.AssertExpectations(t)
}

func TestTreatmentHandler_RunTreatment_KeepUploads(t *testing.T) {
	trackingBook, exportBook := treatmentWorkbooks(t)

	mockService := new(MockTreatmentService)
	handler, paths := newTestTreatmentHandler(t, mockService, func(cfg *config.Config) {
		cfg.Upload.KeepUploads = true
	})

	outputPath := filepath.Join(paths.OutputsDir, "suivi_stock_15-01-2024_cafebabe.xlsx")
	require.NoError(t, os.WriteFile(outputPath, []byte("workbook"), 0644))

	mockService.On("Lookup", domain.TreatmentSuiviStock).Return(suiviStockTreatment(), nil)
	mockService.On("Run", mock.AnythingOfType("domain.TreatmentRequest")).
		Return(&domain.TreatmentResult{
			Treatment:   domain.TreatmentSuiviStock,
			ColumnLabel: "15/01/2024",
			OutputPath:  outputPath,
		}, nil)

	body, contentType := testutil.MultipartBody(t,
		[]testutil.MultipartFile{
			{Field: "suivi", Filename: "suivi.xlsx", Content: trackingBook},
			{Field: "export", Filename: "export.xlsx", Content: exportBook},
		},
		map[string]string{"params": `{"export_date":"2024-01-15"}`},
	)
	rec := postTreatment(handler, "/suivi-stock", body, contentType, "")

	assert.Equal(t, http.StatusOK, rec.Code)

	entries, err := os.ReadDir(paths.UploadsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "staged uploads must survive when keep_uploads is on")
	assert.NoFileExists(t, outputPath)
	mockService.AssertExpectations(t)
}
