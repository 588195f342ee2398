package tracking

import (
	"fmt"
)

// StockListNotFoundError reports a tracking workbook that has no sheet named
// SheetStockList. The sheet name is part of the upload contract; nothing is
// guessed from the other sheets.
type StockListNotFoundError struct {
	Sheets []string
}

func (e *StockListNotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found in tracking workbook", SheetStockList)
}

// DuplicateImportError reports an export date whose canonical label is
// already present in the table header. The offending label is kept for user
// display.
type DuplicateImportError struct {
	Label string
}

func (e *DuplicateImportError) Error() string {
	return fmt.Sprintf("export dated %s has already been imported", e.Label)
}
