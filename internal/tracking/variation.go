package tracking

import (
	"suivistock/pkg/contracts/domain"
)

// ComputeVariations diffs every table row between two dated columns and
// returns the non-zero deltas in table row order. A column a row never
// received reads as 0, so brand-new rows surface with their full current
// quantity and vanished rows with a negative delta.
func ComputeVariations(table *Table, currentLabel, previousLabel string) []domain.VariationRecord {
	var records []domain.VariationRecord
	for _, row := range table.Rows() {
		current := row.Quantity(currentLabel)
		variation := current - row.Quantity(previousLabel)
		if variation == 0 {
			continue
		}
		records = append(records, domain.VariationRecord{
			ArticleCode:         row.ArticleCode,
			Description:         row.Description,
			LocationCode:        row.LocationCode,
			LocationDescription: row.LocationDescription,
			Variation:           variation,
			Current:             current,
		})
	}
	return records
}

// BuildVariationReport resolves the lookback for currentLabel and offset and
// computes the resulting variation records. When the table holds too little
// history, or the resolved baseline is not a date column, the report comes
// back unavailable with no records; that outcome is rendered as a message
// sheet, never treated as an error.
func BuildVariationReport(table *Table, currentLabel string, offset int) domain.VariationReport {
	report := domain.VariationReport{
		CurrentLabel: currentLabel,
		Offset:       offset,
	}

	series := NewSeries(table.Labels())
	previous, ok := series.Lookback(series.Position(currentLabel), offset)
	if !ok {
		return report
	}

	previousLabel, _ := series.Label(previous)
	report.PreviousLabel = previousLabel
	report.Available = true
	report.Records = ComputeVariations(table, currentLabel, previousLabel)
	return report
}
