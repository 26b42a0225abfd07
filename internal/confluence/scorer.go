package confluence

import (
	"math"

	"nse-trading-engine/internal/indicator"
)

// Layer names one of the four technical analysis layers.
type Layer string

const (
	LayerTrend      Layer = "trend"
	LayerMomentum   Layer = "momentum"
	LayerVolatility Layer = "volatility"
	LayerStructure  Layer = "structure"
)

// Layers lists all layers in scoring order.
var Layers = []Layer{LayerTrend, LayerMomentum, LayerVolatility, LayerStructure}

// Weights maps each layer to its regime-dependent weight. Profiles are
// validated to sum to 1.0 at load time; a missing layer falls back to
// 0.25 during aggregation.
type Weights map[Layer]float64

// Scores maps each layer to its score in [-100, 100].
type Scores map[Layer]float64

// Strength labels how decisive the weighted score is.
type Strength string

const (
	StrengthStrong   Strength = "STRONG"
	StrengthModerate Strength = "MODERATE"
	StrengthWeak     Strength = "WEAK"
)

// Result is the aggregated confluence outcome. Score is the weighted
// score rescaled to [0, 100]; Agreement is the share of layers voting
// with the majority.
type Result struct {
	Score         float64             `json:"score"`
	WeightedScore float64             `json:"weighted_score"`
	Direction     indicator.Direction `json:"direction"`
	Strength      Strength            `json:"strength"`
	Agreement     float64             `json:"agreement"`
	LayerScores   Scores              `json:"layer_scores"`
	Weights       Weights             `json:"weights"`
}

// Calculator maps layer analyses to scores and combines them under a
// regime weight profile.
type Calculator struct{}

// NewCalculator creates a confluence calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateLayerScores converts the four layer analyses into scores in
// [-100, 100].
func (c *Calculator) CalculateLayerScores(
	trend indicator.TrendAnalysis,
	momentum indicator.MomentumAnalysis,
	volatility indicator.VolatilityAnalysis,
	structure indicator.StructureAnalysis,
	currentPrice float64,
) Scores {
	scores := Scores{}

	// Trend layer: strength signed by direction, VWAP side bonus,
	// crossover bonus
	trendScore := 0.0
	switch trend.Trend {
	case indicator.DirectionBullish:
		trendScore += trend.Strength * 0.7
		if trend.PriceVsVWAP == "ABOVE" {
			trendScore += 20
		}
		if trend.GoldenCross {
			trendScore += 24
		}
	case indicator.DirectionBearish:
		trendScore -= trend.Strength * 0.7
		if trend.PriceVsVWAP == "BELOW" {
			trendScore -= 20
		}
		if trend.DeathCross {
			trendScore -= 24
		}
	}
	scores[LayerTrend] = clamp(trendScore, -100, 100)

	// Momentum layer: composite score passes through
	scores[LayerMomentum] = clamp(momentum.Score, -100, 100)

	// Volatility layer: band extremes, squeeze bonus, extreme ATR penalty
	volScore := 0.0
	switch volatility.BBPosition {
	case "BELOW_LOWER":
		volScore += 40
	case "ABOVE_UPPER":
		volScore -= 40
	case "LOWER_HALF":
		volScore += 15
	case "UPPER_HALF":
		volScore -= 15
	}
	if volatility.BBSqueeze {
		volScore += 20
	}
	if volatility.ATRPercentile > 90 {
		volScore -= 20
	}
	scores[LayerVolatility] = clamp(volScore, -100, 100)

	// Structure layer: breakouts, S/R proximity, short pattern
	structScore := 0.0
	if structure.Breakout.Breakout {
		magnitude := 35.0
		if structure.Breakout.Strength == "STRONG" {
			magnitude = 60
		}
		switch structure.Breakout.Direction {
		case indicator.DirectionBullish:
			structScore += magnitude
		case indicator.DirectionBearish:
			structScore -= magnitude
		}
	}
	for _, support := range structure.SupportLevels {
		if support > 0 && math.Abs(currentPrice-support)/support < 0.01 {
			structScore += 25
			break
		}
	}
	for _, resistance := range structure.ResistanceLevels {
		if resistance > 0 && math.Abs(currentPrice-resistance)/resistance < 0.01 {
			structScore -= 25
			break
		}
	}
	switch structure.Pattern {
	case "BULLISH_TREND":
		structScore += 20
	case "BEARISH_TREND":
		structScore -= 20
	}
	scores[LayerStructure] = clamp(structScore, -100, 100)

	return scores
}

// CalculateConfluence combines layer scores under the weight profile
// into a single directional result.
func (c *Calculator) CalculateConfluence(scores Scores, weights Weights) Result {
	weightedScore := 0.0
	for layer, score := range scores {
		weight, ok := weights[layer]
		if !ok {
			weight = 0.25
		}
		weightedScore += score * weight
	}

	confluenceScore := (weightedScore + 100) / 2

	direction := indicator.DirectionNeutral
	strength := StrengthWeak
	switch {
	case weightedScore > 40:
		direction = indicator.DirectionBullish
		strength = StrengthModerate
		if weightedScore > 70 {
			strength = StrengthStrong
		}
	case weightedScore < -40:
		direction = indicator.DirectionBearish
		strength = StrengthModerate
		if weightedScore < -70 {
			strength = StrengthStrong
		}
	}

	bullishLayers := 0
	bearishLayers := 0
	for _, score := range scores {
		if score > 20 {
			bullishLayers++
		}
		if score < -20 {
			bearishLayers++
		}
	}
	majority := bullishLayers
	if bearishLayers > majority {
		majority = bearishLayers
	}
	agreement := float64(majority) / float64(len(Layers)) * 100

	return Result{
		Score:         confluenceScore,
		WeightedScore: weightedScore,
		Direction:     direction,
		Strength:      strength,
		Agreement:     agreement,
		LayerScores:   scores,
		Weights:       weights,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
