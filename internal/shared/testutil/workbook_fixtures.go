package testutil

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// StockListSheet matches the sheet name the tracking table lives in.
const StockListSheet = "Liste de Stock"

// TrackingHeader returns the standard stock list header row with the given
// date-column labels appended after the four metadata columns.
func TrackingHeader(labels ...string) []interface{} {
	header := []interface{}{"Code Article", "Désignation", "Code Magasin", "Magasin"}
	for _, label := range labels {
		header = append(header, label)
	}
	return header
}

// TrackingWorkbook builds an in-memory tracking workbook holding the stock
// list sheet with the given header and data rows, serialized to xlsx bytes.
func TrackingWorkbook(t *testing.T, header []interface{}, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(StockListSheet)
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	require.NoError(t, f.SetSheetRow(StockListSheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(StockListSheet, cell, &row))
	}

	return WorkbookBytes(t, f)
}

// ExportWorkbook builds an in-memory export workbook: one sheet with a header
// row followed by raw rows of article code, location code, description and
// location description.
func ExportWorkbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"Code Article", "Code Magasin", "Désignation", "Magasin"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	return WorkbookBytes(t, f)
}

// WorkbookBytes serializes an open workbook to xlsx bytes.
func WorkbookBytes(t *testing.T, f *excelize.File) []byte {
	t.Helper()

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// OpenWorkbook reopens xlsx bytes as a workbook and registers cleanup.
func OpenWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// MultipartFile is one file part of a multipart upload.
type MultipartFile struct {
	Field    string
	Filename string
	Content  []byte
}

// MultipartBody builds a multipart/form-data body from file parts and form
// fields, returning the encoded body and its content type.
func MultipartBody(t *testing.T, files []MultipartFile, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Filename)
		require.NoError(t, err)
		_, err = part.Write(file.Content)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}
