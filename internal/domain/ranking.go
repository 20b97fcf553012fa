package domain

// RankedProduct is one entry of a served ranking page. Rank is 1-based.
type RankedProduct struct {
	ProductID int64
	Rank      int
	Score     float64
}

// TopRankingSize bounds how many products keep a materialized rank per period.
const TopRankingSize = 100
