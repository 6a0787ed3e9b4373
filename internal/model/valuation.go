package model

import "time"

// Verdict is the discrete recommendation tier derived from percent
// deviation against the simulated market average.
type Verdict string

const (
	VerdictStrongBuy  Verdict = "strong_buy"
	VerdictGoodValue  Verdict = "good_value"
	VerdictFair       Verdict = "fair"
	VerdictOverpriced Verdict = "overpriced"
	VerdictAvoid      Verdict = "avoid"
)

// PricePrediction is the point estimate with its confidence interval.
// Bounds are symmetric around the point estimate at a fixed variance
// fraction; all amounts are raw INR.
type PricePrediction struct {
	PointEstimate    float64            `json:"point_estimate"`
	LowerBound       float64            `json:"lower_bound"`
	UpperBound       float64            `json:"upper_bound"`
	Confidence       float64            `json:"confidence"` // 0-100
	PricePerSqft     float64            `json:"price_per_sqft"`
	Method           string             `json:"method"` // "ensemble" or "closed_form"
	ModelPredictions map[string]float64 `json:"model_predictions,omitempty"`
}

// AttributionEntry explains one feature group's contribution to the
// point estimate, as a signed percentage of it.
type AttributionEntry struct {
	Feature     string  `json:"feature"`
	Description string  `json:"description"`
	Percent     float64 `json:"percent"`
	Direction   string  `json:"direction"` // "positive" or "negative"
}

// MarketQuote is one simulated comparable listing price.
type MarketQuote struct {
	Source string  `json:"source"`
	Price  float64 `json:"price"`
}

// MarketComparison compares the point estimate to a synthetic market
// distribution across notional listing platforms.
type MarketComparison struct {
	Quotes            []MarketQuote `json:"quotes"`
	AverageMarket     float64       `json:"average_market_price"`
	PercentDifference float64       `json:"percent_difference"`
	Recommendation    Verdict       `json:"recommendation"`
	Reasoning         string        `json:"reasoning"`
	NegotiationTip    string        `json:"negotiation_tip"`
}

// ValuationResult is the full output for one property.
type ValuationResult struct {
	Property    PropertyInput      `json:"property"`
	CityProfile CityProfile        `json:"city_profile"`
	Prediction  PricePrediction    `json:"prediction"`
	Attribution []AttributionEntry `json:"attribution"`
	Market      MarketComparison   `json:"market"`
}

// ValuationRecord is a persisted valuation with its identity and timestamp.
type ValuationRecord struct {
	ID        string          `json:"id"`
	City      string          `json:"city"`
	Verdict   Verdict         `json:"verdict"`
	Result    ValuationResult `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}
