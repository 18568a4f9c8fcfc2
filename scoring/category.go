package scoring

// Category labels a score for display. Band lookup only; scores outside the
// bands (including the unclamped high end) fall through to the edges.
type Category string

const (
	CategoryExcellent Category = "Excellent"
	CategoryVeryGood  Category = "Very Good"
	CategoryGood      Category = "Good"
	CategoryFair      Category = "Fair"
	CategoryPoor      Category = "Poor"
	CategoryNoScore   Category = "No Score"
)

// Categorize maps a score onto its display band.
func Categorize(score int) Category {
	switch {
	case score >= 85:
		return CategoryExcellent
	case score >= 70:
		return CategoryVeryGood
	case score >= 55:
		return CategoryGood
	case score >= 40:
		return CategoryFair
	case score >= 1:
		return CategoryPoor
	default:
		return CategoryNoScore
	}
}

// Color returns the hex display color for a band.
func Color(category Category) string {
	switch category {
	case CategoryExcellent:
		return "#1B873B"
	case CategoryVeryGood:
		return "#7BB662"
	case CategoryGood:
		return "#FFD301"
	case CategoryFair:
		return "#E8930C"
	case CategoryPoor:
		return "#D61F1F"
	default:
		return "#9E9E9E"
	}
}
