package domain

// Weight is the contribution a single event category adds to a product's
// real-time ranking score.
type Weight struct {
	Name  string
	Value float64
}

var (
	WeightView         = Weight{Name: "view", Value: 0.1}
	WeightLike         = Weight{Name: "like", Value: 0.2}
	WeightOrderCreated = Weight{Name: "order-created", Value: 0.7}
	WeightCarryOver    = Weight{Name: "carry-over", Value: 0.1}
)

// Score combines daily counters into a weighted ranking score. A term only
// contributes when its counter is positive.
func Score(likeCount, viewCount, salesCount int64) float64 {
	score := 0.0
	if viewCount > 0 {
		score += float64(viewCount) * WeightView.Value
	}
	if likeCount > 0 {
		score += float64(likeCount) * WeightLike.Value
	}
	if salesCount > 0 {
		score += float64(salesCount) * WeightOrderCreated.Value
	}
	return score
}
