// Package dates normalizes export dates into the canonical column-label
// format used by the tracking table header.
//
// Two input forms are accepted, both fixed-width digit patterns: ISO
// (2006-01-02) and French (02/01/2006). The canonical display form is the
// French one. Out-of-range day or month values are rejected rather than
// rolled over.
package dates

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// LayoutISO is the ISO input layout.
	LayoutISO = "2006-01-02"
	// LayoutCanonical is the canonical column-label layout.
	LayoutCanonical = "02/01/2006"
)

var (
	isoPattern       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	canonicalPattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

// InvalidDateFormatError reports a date parameter that matches neither
// accepted pattern, or matches one but holds out-of-range components.
type InvalidDateFormatError struct {
	Value string
	Err   error
}

func (e *InvalidDateFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid date format %q: expected YYYY-MM-DD or DD/MM/YYYY", e.Value)
}

func (e *InvalidDateFormatError) Unwrap() error {
	return e.Err
}

// Normalize parses value in either accepted form and returns the canonical
// column label. The patterns are strict: components must be zero-padded to
// their full width, and calendar-invalid values such as 31/02/2024 fail.
func Normalize(value string) (string, error) {
	var layout string
	switch {
	case isoPattern.MatchString(value):
		layout = LayoutISO
	case canonicalPattern.MatchString(value):
		layout = LayoutCanonical
	default:
		return "", &InvalidDateFormatError{Value: value}
	}

	t, err := time.Parse(layout, value)
	if err != nil {
		return "", &InvalidDateFormatError{Value: value, Err: err}
	}
	return t.Format(LayoutCanonical), nil
}

// IsValid reports whether value would normalize without error. Used by the
// lookback guard to tell date columns apart from arbitrary header text.
func IsValid(value string) bool {
	_, err := Normalize(value)
	return err == nil
}
