package valuation

import (
	"fmt"
	"math"

	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
)

// Recommender maps the estimate-versus-market percent difference onto a
// discrete verdict with human-readable reasoning and a negotiation tip.
type Recommender struct {
	cfg config.RecommendConfig
}

// NewRecommender builds a recommender over the configured verdict tiers.
func NewRecommender(cfg config.RecommendConfig) *Recommender {
	return &Recommender{cfg: cfg}
}

// Classify maps a percent difference to its verdict tier. Tier bounds
// are upper-inclusive: a difference exactly on a threshold takes the
// milder verdict.
func (r *Recommender) Classify(percentDiff float64) model.Verdict {
	switch {
	case percentDiff <= r.cfg.StrongBuyMax:
		return model.VerdictStrongBuy
	case percentDiff <= r.cfg.GoodValueMax:
		return model.VerdictGoodValue
	case percentDiff <= r.cfg.FairMax:
		return model.VerdictFair
	case percentDiff <= r.cfg.OverpricedMax:
		return model.VerdictOverpriced
	default:
		return model.VerdictAvoid
	}
}

// Reasoning renders the one-line explanation for a verdict.
func (r *Recommender) Reasoning(verdict model.Verdict, percentDiff float64) string {
	abs := math.Abs(percentDiff)
	switch verdict {
	case model.VerdictStrongBuy:
		return fmt.Sprintf("Estimated value is %.1f%% below the market average. Excellent deal, move quickly.", abs)
	case model.VerdictGoodValue:
		return fmt.Sprintf("Estimated value is %.1f%% below the market average. Good value for this segment.", abs)
	case model.VerdictFair:
		return fmt.Sprintf("Estimated value is within %.1f%% of the market average. Priced in line with comparable listings.", abs)
	case model.VerdictOverpriced:
		return fmt.Sprintf("Estimated value is %.1f%% above the market average. There is room to negotiate.", abs)
	default:
		return fmt.Sprintf("Estimated value is %.1f%% above the market average. Significantly overpriced for this market.", abs)
	}
}

// NegotiationTip suggests an opening offer against the market average.
// Above-market estimates anchor below the average; at or below market,
// the listing already favors the buyer.
func (r *Recommender) NegotiationTip(percentDiff, averageMarket float64) string {
	switch {
	case percentDiff > 10:
		offer := math.Round(averageMarket * 0.95)
		return fmt.Sprintf("Open at %s, about 5%% below the market average.", FormatINR(offer))
	case percentDiff > 0:
		return fmt.Sprintf("Open at the market average of %s.", FormatINR(averageMarket))
	default:
		return "Priced at or below market. Negotiating down risks losing the property."
	}
}

// Compare assembles the full market comparison for a point estimate.
func (r *Recommender) Compare(point float64, quotes []model.MarketQuote) model.MarketComparison {
	average := Average(quotes)
	diff := PercentDifference(point, average)
	verdict := r.Classify(diff)

	return model.MarketComparison{
		Quotes:            quotes,
		AverageMarket:     average,
		PercentDifference: diff,
		Recommendation:    verdict,
		Reasoning:         r.Reasoning(verdict, diff),
		NegotiationTip:    r.NegotiationTip(diff, average),
	}
}
