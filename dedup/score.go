package dedup

import (
	"math"

	"joreca_dedup/models"
)

// Score computes the composite similarity of two normalized listings. It is
// pure and symmetric: Score(a, b) and Score(b, a) return the same value.
//
// Missing-feature policy: a numeric or text feature whose input is unknown on
// either side is excluded and its weight redistributed pro-rata over the
// remaining features. City is the exception: an unknown city contributes 0
// while keeping its weight, because a listing that cannot even be placed in a
// city is weak negative evidence, whereas a missing price is merely neutral.
func Score(a, b *models.NormalizedListing, w Weights) models.SimilarityScore {
	var breakdown models.FeatureBreakdown

	// City weight always stays in the denominator.
	weightTotal := w.City
	scoreTotal := 0.0

	if a.City != "" && b.City != "" && a.City == b.City {
		breakdown.CityMatch = true
		scoreTotal += w.City
	}

	if a.Price != nil && b.Price != nil {
		closeness := closeness(float64(*a.Price), float64(*b.Price))
		breakdown.PriceCloseness = &closeness
		weightTotal += w.Price
		scoreTotal += w.Price * closeness
	}

	if a.Surface != nil && b.Surface != nil {
		closeness := closeness(*a.Surface, *b.Surface)
		breakdown.SurfaceCloseness = &closeness
		weightTotal += w.Surface
		scoreTotal += w.Surface * closeness
	}

	if a.Rooms != nil && b.Rooms != nil {
		match := *a.Rooms == *b.Rooms
		breakdown.RoomMatch = &match
		weightTotal += w.Rooms
		if match {
			scoreTotal += w.Rooms
		}
	}

	if len(a.Tokens) > 0 && len(b.Tokens) > 0 {
		sim := jaccard(a.Tokens, b.Tokens)
		breakdown.TextSimilarity = &sim
		weightTotal += w.Text
		scoreTotal += w.Text * sim
	}

	score := 0.0
	if weightTotal > 0 {
		score = scoreTotal / weightTotal
	}

	return models.SimilarityScore{
		Pair:     models.NewCandidatePair(a.ID, b.ID),
		Score:    score,
		Features: breakdown,
	}
}

// closeness is 1 for equal values and decays linearly with relative
// difference: 1 - min(1, |a-b| / max(a,b)).
func closeness(a, b float64) float64 {
	maxVal := math.Max(math.Abs(a), math.Abs(b))
	if maxVal == 0 {
		return 1
	}
	return 1 - math.Min(1, math.Abs(a-b)/maxVal)
}

func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
