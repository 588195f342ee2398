package domain

// ItemKey is the composite identity of one stock item at one location.
// Two rows or export entries with the same key are the same logical
// item-location.
type ItemKey struct {
	ArticleCode  string `json:"article_code"`
	LocationCode string `json:"location_code"`
}

// String renders the key for logs and error messages.
func (k ItemKey) String() string {
	return k.ArticleCode + "|" + k.LocationCode
}

// TrackingRow is one item-location line of the tracking table. Quantities
// maps a date-column label to the quantity recorded for that period; a label
// missing from the map means the row predates or postdates that column and
// reads as 0.
type TrackingRow struct {
	ArticleCode         string         `json:"article_code" validate:"required"`
	Description         string         `json:"description,omitempty"`
	LocationCode        string         `json:"location_code" validate:"required"`
	LocationDescription string         `json:"location_description,omitempty"`
	Quantities          map[string]int `json:"quantities,omitempty"`
}

// Key returns the row's identity key.
func (r *TrackingRow) Key() ItemKey {
	return ItemKey{ArticleCode: r.ArticleCode, LocationCode: r.LocationCode}
}

// Quantity returns the quantity stored under label, or 0 when the row has no
// value for that column.
func (r *TrackingRow) Quantity(label string) int {
	if r.Quantities == nil {
		return 0
	}
	return r.Quantities[label]
}

// SetQuantity records a quantity under label, allocating the map on first use.
func (r *TrackingRow) SetQuantity(label string, quantity int) {
	if r.Quantities == nil {
		r.Quantities = make(map[string]int)
	}
	r.Quantities[label] = quantity
}

// ExportEntry is the aggregated form of one identity key in an export
// snapshot. Quantity counts the raw rows seen for the key; descriptive
// fields come from the first occurrence.
type ExportEntry struct {
	ArticleCode         string `json:"article_code" validate:"required"`
	Description         string `json:"description,omitempty"`
	LocationCode        string `json:"location_code" validate:"required"`
	LocationDescription string `json:"location_description,omitempty"`
	Quantity            int    `json:"quantity" validate:"min=1"`
}

// Key returns the entry's identity key.
func (e *ExportEntry) Key() ItemKey {
	return ItemKey{ArticleCode: e.ArticleCode, LocationCode: e.LocationCode}
}
