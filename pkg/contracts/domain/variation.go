package domain

// QuantityTier classifies a row's current quantity for report styling.
type QuantityTier string

const (
	TierCritical QuantityTier = "critical"
	TierLow      QuantityTier = "low"
	TierNormal   QuantityTier = "normal"
)

// TierOf maps a current quantity to its styling tier: 5 or fewer units is
// critical, 6 through 10 is low, anything above is normal.
func TierOf(current int) QuantityTier {
	switch {
	case current <= 5:
		return TierCritical
	case current <= 10:
		return TierLow
	default:
		return TierNormal
	}
}

// VariationRecord is one non-zero signed delta between a row's quantities at
// two dated columns. Records are computed per run and rendered into report
// sheets and CSV exports, never persisted on their own.
type VariationRecord struct {
	ArticleCode         string `json:"article_code" csv:"Code Article"`
	Description         string `json:"description" csv:"Désignation"`
	LocationCode        string `json:"location_code" csv:"Code Magasin"`
	LocationDescription string `json:"location_description" csv:"Magasin"`
	Variation           int    `json:"variation" csv:"Variation"`
	Current             int    `json:"current" csv:"Quantité Actuelle"`
}

// Tier returns the styling tier of the record's current quantity.
func (r VariationRecord) Tier() QuantityTier {
	return TierOf(r.Current)
}

// VariationReport is the outcome of one lookback comparison. When the table
// does not hold enough history for the requested offset, Available is false
// and Records is empty; that is a documented outcome, not an error.
type VariationReport struct {
	CurrentLabel  string            `json:"current_label"`
	PreviousLabel string            `json:"previous_label,omitempty"`
	Offset        int               `json:"offset"`
	Available     bool              `json:"available"`
	Records       []VariationRecord `json:"records,omitempty"`
}
