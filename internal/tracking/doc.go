// Package tracking implements the stock tracking core: loading the stock
// list sheet into a typed table, folding an export snapshot into per-item
// quantities, merging those quantities as a new dated column, and deriving
// variation reports from the column history.
//
// The table's header is treated as an append-only time series: four fixed
// metadata columns followed by one column per imported export, labeled with
// the canonical date of that export. Position in the label sequence is the
// authoritative notion of "period"; lookback offsets (1 for monthly, 6 for
// semestrial) step backward through it.
package tracking
