package tracking

import (
	"context"
	"log/slog"

	"suivistock/pkg/contracts/domain"
)

// DefaultInsertBatchSize bounds how many new rows are appended per batch.
// Batching is resource pacing only; any batch size yields the same table.
const DefaultInsertBatchSize = 500

// Merger reconciles an aggregated export against the tracking table under a
// new dated column.
type Merger struct {
	logger    *slog.Logger
	batchSize int
}

// MergerConfig holds the merger's tuning knobs.
type MergerConfig struct {
	// BatchSize bounds new-row insertion batches; zero or negative selects
	// DefaultInsertBatchSize.
	BatchSize int
}

// MergeResult summarizes one merge.
type MergeResult struct {
	Label    string
	Matched  int
	Zeroed   int
	Inserted int
}

// NewMerger creates a tracking merger.
func NewMerger(logger *slog.Logger, config MergerConfig) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultInsertBatchSize
	}
	return &Merger{
		logger:    logger.With(slog.String("component", "merger")),
		batchSize: config.BatchSize,
	}
}

// Merge appends one column labeled label to the table and fills it from the
// aggregate: every existing row gets the aggregated quantity for its key, or
// 0 when the export no longer carries the key. Aggregate entries without a
// matching row become new rows holding only the new column; their history
// stays absent. Fails with DuplicateImportError, before touching the table,
// when label is already in the header.
//
// Rows are never deleted or reordered. New rows append in the aggregate's
// first-seen order, in bounded batches.
func (m *Merger) Merge(ctx context.Context, table *Table, agg *ExportAggregate, label string) (*MergeResult, error) {
	if table.HasLabel(label) {
		return nil, &DuplicateImportError{Label: label}
	}

	m.logger.InfoContext(ctx, "merging export column",
		slog.String("label", label),
		slog.Int("existing_rows", table.Len()),
		slog.Int("export_keys", agg.Len()))

	table.AppendLabel(label)

	result := &MergeResult{Label: label}
	consumed := make(map[domain.ItemKey]bool, agg.Len())

	for _, row := range table.Rows() {
		key := row.Key()
		if entry, ok := agg.Get(key); ok {
			row.SetQuantity(label, entry.Quantity)
			consumed[key] = true
			result.Matched++
		} else {
			row.SetQuantity(label, 0)
			result.Zeroed++
		}
	}

	batch := make([]*domain.TrackingRow, 0, m.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		for _, row := range batch {
			table.AppendRow(row)
		}
		m.logger.DebugContext(ctx, "inserted row batch",
			slog.String("label", label),
			slog.Int("batch_size", len(batch)))
		batch = batch[:0]
	}

	for _, entry := range agg.Entries() {
		if consumed[entry.Key()] {
			continue
		}
		row := &domain.TrackingRow{
			ArticleCode:         entry.ArticleCode,
			Description:         entry.Description,
			LocationCode:        entry.LocationCode,
			LocationDescription: entry.LocationDescription,
		}
		row.SetQuantity(label, entry.Quantity)
		batch = append(batch, row)
		result.Inserted++
		if len(batch) == m.batchSize {
			flush()
		}
	}
	flush()

	m.logger.InfoContext(ctx, "export column merged",
		slog.String("label", label),
		slog.Int("matched", result.Matched),
		slog.Int("zeroed", result.Zeroed),
		slog.Int("inserted", result.Inserted))

	return result, nil
}
