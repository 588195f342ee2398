package tracking

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"suivistock/pkg/contracts/domain"
)

const (
	// SheetStockList is the mandatory sheet holding the tracking table.
	SheetStockList = "Liste de Stock"

	// metadataColumns is the number of fixed identity columns before the
	// date-column sequence begins.
	metadataColumns = 4

	// maxColumnWidth caps the cosmetic auto-sizing of columns.
	maxColumnWidth = 42.0
)

// defaultMetadataHeaders are written when a table is created from scratch
// or when the loaded sheet carries no header row.
var defaultMetadataHeaders = []string{"Code Article", "Désignation", "Code Magasin", "Magasin"}

// Table is the in-memory form of the stock list sheet: four fixed metadata
// columns followed by an append-only sequence of dated quantity columns.
// Rows keep their sheet order; merge only ever appends.
type Table struct {
	metadataHeaders []string
	labels          []string
	rows            []*domain.TrackingRow

	// extent of the sheet at load time, used to blank stale cells when the
	// sheet is rewritten in place
	loadedRows int
	loadedCols int
}

// NewTable returns an empty table with the default metadata headers.
func NewTable() *Table {
	headers := make([]string, metadataColumns)
	copy(headers, defaultMetadataHeaders)
	return &Table{metadataHeaders: headers}
}

// LoadTable extracts the stock list sheet of an open workbook into a Table.
// It fails with StockListNotFoundError when the sheet is absent. Rows whose
// cells are all blank are dropped; every other row is kept verbatim.
func LoadTable(f *excelize.File) (*Table, error) {
	idx, err := f.GetSheetIndex(SheetStockList)
	if err != nil || idx < 0 {
		return nil, &StockListNotFoundError{Sheets: f.GetSheetList()}
	}

	rows, err := f.GetRows(SheetStockList)
	if err != nil {
		return nil, &StockListNotFoundError{Sheets: f.GetSheetList()}
	}

	t := NewTable()
	t.loadedRows = len(rows)
	for _, row := range rows {
		if len(row) > t.loadedCols {
			t.loadedCols = len(row)
		}
	}

	if len(rows) == 0 {
		return t, nil
	}

	header := rows[0]
	for c := 0; c < metadataColumns && c < len(header); c++ {
		if h := strings.TrimSpace(header[c]); h != "" {
			t.metadataHeaders[c] = h
		}
	}
	for c := metadataColumns; c < len(header); c++ {
		t.labels = append(t.labels, strings.TrimSpace(header[c]))
	}

	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		tr := &domain.TrackingRow{
			ArticleCode:         cellAt(row, 0),
			Description:         cellAt(row, 1),
			LocationCode:        cellAt(row, 2),
			LocationDescription: cellAt(row, 3),
		}
		for i, label := range t.labels {
			raw := cellAt(row, metadataColumns+i)
			if raw == "" {
				continue
			}
			q, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			tr.SetQuantity(label, q)
		}
		t.rows = append(t.rows, tr)
	}

	return t, nil
}

// Labels returns the ordered date-column label sequence. The returned slice
// is the table's own; callers must not mutate it.
func (t *Table) Labels() []string {
	return t.labels
}

// HasLabel reports whether label is already part of the header sequence.
func (t *Table) HasLabel(label string) bool {
	for _, l := range t.labels {
		if l == label {
			return true
		}
	}
	return false
}

// AppendLabel appends one label to the header sequence.
func (t *Table) AppendLabel(label string) {
	t.labels = append(t.labels, label)
}

// Rows returns the table rows in sheet order.
func (t *Table) Rows() []*domain.TrackingRow {
	return t.rows
}

// AppendRow appends one row after all existing rows.
func (t *Table) AppendRow(row *domain.TrackingRow) {
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// WriteTo rewrites the stock list sheet of f from the table, creating the
// sheet when absent. The whole grid up to the larger of the written and the
// loaded extent is touched so no stale cells survive the rewrite; a row cell
// with no quantity for its column is written blank, never 0.
func (t *Table) WriteTo(f *excelize.File) error {
	if idx, err := f.GetSheetIndex(SheetStockList); err != nil || idx < 0 {
		if _, err := f.NewSheet(SheetStockList); err != nil {
			return err
		}
	}

	width := metadataColumns + len(t.labels)
	if t.loadedCols > width {
		width = t.loadedCols
	}
	height := len(t.rows) + 1
	if t.loadedRows > height {
		height = t.loadedRows
	}

	grid := make([][]interface{}, height)
	for i := range grid {
		grid[i] = make([]interface{}, width)
	}

	for c := 0; c < metadataColumns; c++ {
		grid[0][c] = t.metadataHeaders[c]
	}
	for i, label := range t.labels {
		grid[0][metadataColumns+i] = label
	}

	for r, row := range t.rows {
		grid[r+1][0] = row.ArticleCode
		grid[r+1][1] = row.Description
		grid[r+1][2] = row.LocationCode
		grid[r+1][3] = row.LocationDescription
		for i, label := range t.labels {
			if q, ok := row.Quantities[label]; ok {
				grid[r+1][metadataColumns+i] = q
			}
		}
	}

	for r, cells := range grid {
		for c, value := range cells {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetStockList, cell, value); err != nil {
				return err
			}
		}
	}

	t.loadedRows = height
	t.loadedCols = width

	return t.autosizeColumns(f)
}

// autosizeColumns recomputes cosmetic column widths from cell content.
// Purely presentational; column order and values are never touched.
func (t *Table) autosizeColumns(f *excelize.File) error {
	width := metadataColumns + len(t.labels)
	for c := 0; c < width; c++ {
		longest := 0
		if c < metadataColumns {
			longest = len([]rune(t.metadataHeaders[c]))
		} else {
			longest = len([]rune(t.labels[c-metadataColumns]))
		}
		for _, row := range t.rows {
			var l int
			switch c {
			case 0:
				l = len([]rune(row.ArticleCode))
			case 1:
				l = len([]rune(row.Description))
			case 2:
				l = len([]rune(row.LocationCode))
			case 3:
				l = len([]rune(row.LocationDescription))
			default:
				if q, ok := row.Quantities[t.labels[c-metadataColumns]]; ok {
					l = len(strconv.Itoa(q))
				}
			}
			if l > longest {
				longest = l
			}
		}
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		w := float64(longest) + 2
		if w > maxColumnWidth {
			w = maxColumnWidth
		}
		if err := f.SetColWidth(SheetStockList, name, name, w); err != nil {
			return err
		}
	}
	return nil
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
