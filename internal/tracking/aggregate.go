package tracking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"suivistock/pkg/contracts/domain"
)

// Export snapshot column layout: article code, location code, description,
// location description. The first row is a header and is skipped.
const (
	exportColArticleCode = iota
	exportColLocationCode
	exportColDescription
	exportColLocationDescription
)

// ExportAggregate is the keyed multiset produced from one export snapshot.
// Quantity counts raw rows per identity key. Entries iterate in first-seen
// order so that downstream insertion is deterministic.
type ExportAggregate struct {
	order   []domain.ItemKey
	entries map[domain.ItemKey]*domain.ExportEntry
}

// NewExportAggregate returns an empty aggregate.
func NewExportAggregate() *ExportAggregate {
	return &ExportAggregate{entries: make(map[domain.ItemKey]*domain.ExportEntry)}
}

// Add folds one raw export row into the aggregate. The first occurrence of a
// key stores the row's descriptive fields with quantity 1; repeats only
// increment the quantity.
func (a *ExportAggregate) Add(articleCode, locationCode, description, locationDescription string) {
	key := domain.ItemKey{ArticleCode: articleCode, LocationCode: locationCode}
	if entry, ok := a.entries[key]; ok {
		entry.Quantity++
		return
	}
	a.entries[key] = &domain.ExportEntry{
		ArticleCode:         articleCode,
		Description:         description,
		LocationCode:        locationCode,
		LocationDescription: locationDescription,
		Quantity:            1,
	}
	a.order = append(a.order, key)
}

// Get returns the entry for key, if any.
func (a *ExportAggregate) Get(key domain.ItemKey) (*domain.ExportEntry, bool) {
	entry, ok := a.entries[key]
	return entry, ok
}

// Len returns the number of distinct identity keys.
func (a *ExportAggregate) Len() int {
	return len(a.order)
}

// Entries returns the aggregated entries in first-seen order.
func (a *ExportAggregate) Entries() []*domain.ExportEntry {
	out := make([]*domain.ExportEntry, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.entries[key])
	}
	return out
}

// Aggregator reads raw export rows and folds them into an ExportAggregate.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an export aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With(slog.String("component", "aggregator"))}
}

// AggregateWorkbook reads the first sheet of the export workbook, by
// position, and aggregates its rows. The sheet's header row is ignored.
func (a *Aggregator) AggregateWorkbook(ctx context.Context, f *excelize.File) (*ExportAggregate, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("export workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read export sheet %q: %w", sheets[0], err)
	}

	agg, skipped := a.aggregateRows(rows)

	a.logger.InfoContext(ctx, "export aggregated",
		slog.String("sheet", sheets[0]),
		slog.Int("raw_rows", maxInt(len(rows)-1, 0)),
		slog.Int("distinct_keys", agg.Len()),
		slog.Int("skipped_rows", skipped))

	return agg, nil
}

// aggregateRows folds the data rows (everything after the header) into an
// aggregate. Rows missing the article code or the location code are skipped.
func (a *Aggregator) aggregateRows(rows [][]string) (*ExportAggregate, int) {
	agg := NewExportAggregate()
	skipped := 0

	if len(rows) < 2 {
		return agg, 0
	}

	for _, row := range rows[1:] {
		articleCode := cellAt(row, exportColArticleCode)
		locationCode := cellAt(row, exportColLocationCode)
		if articleCode == "" || locationCode == "" {
			if !isBlankRow(row) {
				skipped++
			}
			continue
		}
		agg.Add(articleCode, locationCode,
			cellAt(row, exportColDescription),
			cellAt(row, exportColLocationDescription))
	}

	return agg, skipped
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
