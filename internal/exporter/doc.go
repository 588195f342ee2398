// Package exporter writes the variation record sets computed by a
// treatment run as CSV files in the reports directory.
//
// CSVWriter owns the file mechanics: directory creation, the UTF-8 BOM
// Excel needs for the accented French headers, and csvutil marshaling of
// tagged record slices. VariationExporter layers the domain naming on
// top: one file per report sheet, variation_<slug>_<label>.csv, skipped
// entirely when the report's lookback is unavailable.
package exporter
