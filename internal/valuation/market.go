package valuation

import (
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
)

// Simulator produces synthetic comparable quotes around a point estimate.
// Each configured source draws one quote from its factor band. No real
// listing data is consulted.
type Simulator struct {
	sources []config.MarketSource
	newRand func() *rand.Rand
}

// NewSimulator builds a market simulator over the configured sources.
func NewSimulator(cfg config.MarketConfig, newRand func() *rand.Rand) (*Simulator, error) {
	sources := cfg.Sources
	if len(sources) == 0 {
		sources = DefaultMarketSources()
	}
	for _, s := range sources {
		if s.Name == "" {
			return nil, eris.New("market: source without a name")
		}
		if s.MinFactor <= 0 || s.MaxFactor < s.MinFactor {
			return nil, eris.Errorf("market: source %q has invalid factor band [%.2f, %.2f]", s.Name, s.MinFactor, s.MaxFactor)
		}
	}
	return &Simulator{sources: sources, newRand: newRand}, nil
}

// Quotes draws one simulated quote per source. Sources are sampled in
// configuration order, so a fixed seed reproduces the full set.
func (s *Simulator) Quotes(point float64) []model.MarketQuote {
	rng := s.newRand()
	quotes := make([]model.MarketQuote, 0, len(s.sources))
	for _, src := range s.sources {
		factor := src.MinFactor + rng.Float64()*(src.MaxFactor-src.MinFactor)
		quotes = append(quotes, model.MarketQuote{
			Source: src.Name,
			Price:  math.Round(point * factor),
		})
	}
	return quotes
}

// Average returns the arithmetic mean of the quote prices, rounded to
// the rupee.
func Average(quotes []model.MarketQuote) float64 {
	if len(quotes) == 0 {
		return 0
	}
	var sum float64
	for _, q := range quotes {
		sum += q.Price
	}
	return math.Round(sum / float64(len(quotes)))
}

// PercentDifference returns how far the estimate sits from the market
// average, as a signed percentage of the average, rounded to 2 decimals.
// Positive means the estimate is above market.
func PercentDifference(estimate, average float64) float64 {
	if average == 0 {
		return 0
	}
	return math.Round((estimate-average)/average*100*100) / 100
}
