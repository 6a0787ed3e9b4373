package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
)

func testRecommendConfig() config.RecommendConfig {
	return config.RecommendConfig{
		StrongBuyMax:  -10,
		GoodValueMax:  -5,
		FairMax:       5,
		OverpricedMax: 15,
	}
}

func TestClassify(t *testing.T) {
	r := NewRecommender(testRecommendConfig())

	tests := []struct {
		name string
		diff float64
		want model.Verdict
	}{
		{"far below market", -25, model.VerdictStrongBuy},
		{"at strong buy bound", -10, model.VerdictStrongBuy},
		{"good value", -7, model.VerdictGoodValue},
		{"at good value bound", -5, model.VerdictGoodValue},
		{"slightly below", -2, model.VerdictFair},
		{"at market", 0, model.VerdictFair},
		{"at fair bound", 5, model.VerdictFair},
		{"overpriced", 8, model.VerdictOverpriced},
		{"at overpriced bound", 15, model.VerdictOverpriced},
		{"far above market", 20, model.VerdictAvoid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Classify(tt.diff))
		})
	}
}

func TestNegotiationTip(t *testing.T) {
	r := NewRecommender(testRecommendConfig())

	tests := []struct {
		name    string
		diff    float64
		average float64
		want    string
	}{
		{"well above market anchors low", 12, 5_000_000, "Open at ₹47.50 L, about 5% below the market average."},
		{"slightly above market anchors at average", 4, 5_000_000, "Open at the market average of ₹50.00 L."},
		{"at market", 0, 5_000_000, "Priced at or below market. Negotiating down risks losing the property."},
		{"below market", -8, 5_000_000, "Priced at or below market. Negotiating down risks losing the property."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.NegotiationTip(tt.diff, tt.average))
		})
	}
}

func TestReasoningMentionsMagnitude(t *testing.T) {
	r := NewRecommender(testRecommendConfig())

	assert.Contains(t, r.Reasoning(model.VerdictStrongBuy, -12.3), "12.3% below")
	assert.Contains(t, r.Reasoning(model.VerdictAvoid, 22.1), "22.1% above")
	assert.Contains(t, r.Reasoning(model.VerdictFair, 1.2), "within 1.2%")
}

func TestCompare(t *testing.T) {
	r := NewRecommender(testRecommendConfig())

	quotes := []model.MarketQuote{
		{Source: "a", Price: 5_200_000},
		{Source: "b", Price: 5_400_000},
	}
	cmp := r.Compare(4_500_000, quotes)

	require.Len(t, cmp.Quotes, 2)
	assert.InDelta(t, 5_300_000, cmp.AverageMarket, 0.001)
	assert.InDelta(t, -15.09, cmp.PercentDifference, 0.01)
	assert.Equal(t, model.VerdictStrongBuy, cmp.Recommendation)
	assert.NotEmpty(t, cmp.Reasoning)
	assert.NotEmpty(t, cmp.NegotiationTip)
}
