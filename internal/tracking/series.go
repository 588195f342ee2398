package tracking

import (
	"suivistock/internal/dates"
)

// Series indexes an ordered date-column label sequence. Positions are
// 0-based with the first data column at position 0; the four metadata
// columns sit outside the series entirely.
type Series struct {
	labels []string
}

// NewSeries wraps a label sequence, normally Table.Labels().
func NewSeries(labels []string) Series {
	return Series{labels: labels}
}

// Position returns the 0-based position of label, or -1 when absent.
func (s Series) Position(label string) int {
	for i, l := range s.labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Label returns the label at position.
func (s Series) Label(position int) (string, bool) {
	if position < 0 || position >= len(s.labels) {
		return "", false
	}
	return s.labels[position], true
}

// Lookback resolves the comparison position offset periods before position.
// The lookup is unavailable when either position is outside the sequence or
// when the resolved label does not parse as a date, which happens when a
// hand-edited header holds arbitrary text. Monthly reports use offset 1,
// semestrial reports offset 6; the guard is the same for both.
func (s Series) Lookback(position, offset int) (int, bool) {
	if position < 0 || position >= len(s.labels) {
		return 0, false
	}
	previous := position - offset
	if previous < 0 {
		return 0, false
	}
	if !dates.IsValid(s.labels[previous]) {
		return 0, false
	}
	return previous, true
}
