package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "suivistock/internal/errors"
	"suivistock/internal/shared/testutil"
)

func newValidationMiddleware(t *testing.T) *ValidationMiddleware {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return NewValidationMiddleware(logger, errorHandler)
}

func TestValidationMiddleware_ValidateRequest(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
		wantCode    string
	}{
		{
			name:        "valid JSON passes",
			method:      "POST",
			body:        `{"export_date": "2024-01-15"}`,
			contentType: "application/json",
			wantStatus:  http.StatusOK,
		},
		{
			name:        "invalid JSON rejected",
			method:      "POST",
			body:        `{"export_date": `,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
			wantCode:    "INVALID_JSON",
		},
		{
			name:       "GET skipped",
			method:     "GET",
			wantStatus: http.StatusOK,
		},
		{
			name:        "multipart body skipped",
			method:      "POST",
			body:        "--boundary\r\nnot json at all",
			contentType: "multipart/form-data; boundary=boundary",
			wantStatus:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newValidationMiddleware(t)

			var handlerBody string
			handler := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Body != nil {
					data := make([]byte, 1024)
					n, _ := r.Body.Read(data)
					handlerBody = string(data[:n])
				}
				w.WriteHeader(http.StatusOK)
			}))

			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, "/test", body)
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantCode != "" {
				var problem map[string]interface{}
				require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
				assert.Equal(t, tt.wantCode, problem["error_code"])
			}

			// Body must be restored for the handler on the happy path
			if tt.wantStatus == http.StatusOK && tt.method == "POST" && tt.body != "" && !strings.HasPrefix(tt.contentType, "multipart/") {
				assert.Equal(t, tt.body, handlerBody)
			}
		})
	}
}

func TestValidationMiddleware_ValidateRequest_PayloadTooLarge(t *testing.T) {
	m := newValidationMiddleware(t)

	handler := m.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/test", strings.NewReader("{}"))
	r.Header.Set("Content-Type", "application/json")
	r.ContentLength = 11 * 1024 * 1024

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&problem))
	assert.Equal(t, "PAYLOAD_TOO_LARGE", problem["error_code"])
}

func TestValidationMiddleware_ValidateStruct(t *testing.T) {
	type runRequest struct {
		Treatment  string `json:"treatment" validate:"required,slug"`
		ExportDate string `json:"export_date" validate:"required"`
	}

	tests := []struct {
		name       string
		input      runRequest
		wantErr    bool
		wantFields []string
	}{
		{
			name:    "valid struct",
			input:   runRequest{Treatment: "suivi-stock", ExportDate: "2024-01-15"},
			wantErr: false,
		},
		{
			name:       "missing fields",
			input:      runRequest{},
			wantErr:    true,
			wantFields: []string{"treatment", "export_date"},
		},
		{
			name:       "bad slug",
			input:      runRequest{Treatment: "Suivi Stock!", ExportDate: "2024-01-15"},
			wantErr:    true,
			wantFields: []string{"treatment"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newValidationMiddleware(t)

			err := m.ValidateStruct(tt.input)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			apiErr, ok := err.(*apierrors.APIError)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)

			var fields []string
			for _, ve := range details.Errors {
				fields = append(fields, ve.Field)
			}
			for _, want := range tt.wantFields {
				assert.Contains(t, fields, want)
			}
		})
	}
}

func TestValidationMiddleware_ValidateVar(t *testing.T) {
	m := newValidationMiddleware(t)

	assert.NoError(t, m.ValidateVar("treatment", "suivi-stock", "slug"))
	assert.NoError(t, m.ValidateVar("file", "Suivi de Stock.xlsx", "filename"))

	err := m.ValidateVar("treatment", "../escape", "slug")
	require.Error(t, err)
	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestContentTypeValidator(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		allowed     []string
		wantStatus  int
	}{
		{
			name:        "matching prefix passes",
			method:      "POST",
			contentType: "multipart/form-data; boundary=xyz",
			allowed:     []string{"multipart/form-data"},
			wantStatus:  http.StatusOK,
		},
		{
			name:        "wrong type rejected",
			method:      "POST",
			contentType: "application/json",
			allowed:     []string{"multipart/form-data"},
			wantStatus:  http.StatusUnsupportedMediaType,
		},
		{
			name:       "missing content type rejected",
			method:     "POST",
			allowed:    []string{"multipart/form-data"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "GET skipped",
			method:     "GET",
			allowed:    []string{"multipart/form-data"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := ContentTypeValidator(tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, "/test", strings.NewReader("body"))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestQueryParamValidator_ValidateInt(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		min, max  int
		def       int
		wantValue int
		wantOK    bool
	}{
		{
			name:      "missing uses default",
			query:     "",
			min:       1,
			max:       100,
			def:       20,
			wantValue: 20,
			wantOK:    true,
		},
		{
			name:      "valid value",
			query:     "limit=50",
			min:       1,
			max:       100,
			def:       20,
			wantValue: 50,
			wantOK:    true,
		},
		{
			name:   "not an integer",
			query:  "limit=abc",
			min:    1,
			max:    100,
			def:    20,
			wantOK: false,
		},
		{
			name:   "out of range",
			query:  "limit=500",
			min:    1,
			max:    100,
			def:    20,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			errorHandler := apierrors.NewErrorHandler(logger, false)
			v := NewQueryParamValidator(logger, errorHandler)

			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/outputs?"+tt.query, nil)

			value, ok := v.ValidateInt(w, r, "limit", tt.min, tt.max, tt.def)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantValue, value)
			} else {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestQueryParamValidator_ValidateEnum(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	v := NewQueryParamValidator(logger, errorHandler)

	t.Run("missing uses default", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/outputs", nil)

		value, ok := v.ValidateEnum(w, r, "sort", []string{"asc", "desc"}, "desc")
		assert.True(t, ok)
		assert.Equal(t, "desc", value)
	})

	t.Run("allowed value", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/outputs?sort=asc", nil)

		value, ok := v.ValidateEnum(w, r, "sort", []string{"asc", "desc"}, "desc")
		assert.True(t, ok)
		assert.Equal(t, "asc", value)
	})

	t.Run("disallowed value", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/outputs?sort=sideways", nil)

		_, ok := v.ValidateEnum(w, r, "sort", []string{"asc", "desc"}, "desc")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"suivi-stock", true},
		{"inventaire", true},
		{"export-4", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--dash", false},
		{"Upper", false},
		{"with space", false},
		{"dot.name", false},
		{strings.Repeat("a", 65), false},
	}

	m := newValidationMiddleware(t)

	for _, tt := range tests {
		name := tt.slug
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			err := m.ValidateVar("slug", tt.slug, "slug")
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestIsValidFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"Suivi de Stock.xlsx", true},
		{"export_2024-01-15.xlsx", true},
		{"", false},
		{"../../../etc/passwd", false},
		{"dir/file.xlsx", false},
		{`dir\file.xlsx`, false},
		{strings.Repeat("a", 256), false},
	}

	m := newValidationMiddleware(t)

	for _, tt := range tests {
		name := tt.filename
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			err := m.ValidateVar("filename", tt.filename, "filename")
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
