package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesPosition(t *testing.T) {
	series := NewSeries([]string{"15/01/2024", "15/02/2024", "15/03/2024"})

	assert.Equal(t, 0, series.Position("15/01/2024"))
	assert.Equal(t, 2, series.Position("15/03/2024"))
	assert.Equal(t, -1, series.Position("15/04/2024"))
}

func TestSeriesLookback(t *testing.T) {
	sixMonths := []string{
		"15/01/2024", "15/02/2024", "15/03/2024",
		"15/04/2024", "15/05/2024", "15/06/2024", "15/07/2024",
	}

	tests := []struct {
		name     string
		labels   []string
		position int
		offset   int
		want     int
		wantOK   bool
	}{
		{
			name:     "monthly from second column",
			labels:   sixMonths,
			position: 1,
			offset:   1,
			want:     0,
			wantOK:   true,
		},
		{
			name:     "monthly from first column unavailable",
			labels:   sixMonths,
			position: 0,
			offset:   1,
		},
		{
			name:     "semestrial from seventh column reaches the first",
			labels:   sixMonths,
			position: 6,
			offset:   6,
			want:     0,
			wantOK:   true,
		},
		{
			name:     "semestrial from sixth column unavailable",
			labels:   sixMonths,
			position: 5,
			offset:   6,
		},
		{
			name:     "unknown current position unavailable",
			labels:   sixMonths,
			position: -1,
			offset:   1,
		},
		{
			name:     "position beyond sequence unavailable",
			labels:   sixMonths,
			position: 7,
			offset:   1,
		},
		{
			name:     "baseline that is not a date unavailable",
			labels:   []string{"remarques", "15/02/2024"},
			position: 1,
			offset:   1,
		},
		{
			name:     "empty series",
			labels:   nil,
			position: 0,
			offset:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewSeries(tt.labels).Lookback(tt.position, tt.offset)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSeriesLabel(t *testing.T) {
	series := NewSeries([]string{"15/01/2024"})

	label, ok := series.Label(0)
	require.True(t, ok)
	assert.Equal(t, "15/01/2024", label)

	_, ok = series.Label(1)
	assert.False(t, ok)
	_, ok = series.Label(-1)
	assert.False(t, ok)
}
