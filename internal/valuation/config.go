package valuation

import (
	"github.com/rotisserie/eris"

	"github.com/homemetric/valuation-cli/internal/config"
)

// DefaultMarketSources returns the built-in notional listing platforms
// and the factor bands their simulated quotes are drawn from.
func DefaultMarketSources() []config.MarketSource {
	return []config.MarketSource{
		{Name: "99acres", MinFactor: 0.94, MaxFactor: 1.06},
		{Name: "MagicBricks", MinFactor: 0.96, MaxFactor: 1.10},
		{Name: "Housing.com", MinFactor: 0.92, MaxFactor: 1.04},
		{Name: "NoBroker", MinFactor: 0.88, MaxFactor: 1.02},
		{Name: "CommonFloor", MinFactor: 0.95, MaxFactor: 1.08},
	}
}

// ValidateConfig checks the valuation and recommendation parameters for
// values the engine cannot run with.
func ValidateConfig(vcfg config.ValuationConfig, rcfg config.RecommendConfig) error {
	if vcfg.VarianceFraction < 0 || vcfg.VarianceFraction >= 1 {
		return eris.Errorf("valuation: variance_fraction must be in [0, 1), got %.3f", vcfg.VarianceFraction)
	}
	if vcfg.CrimeDamping < 0 || vcfg.CrimeDamping > 0.1 {
		return eris.Errorf("valuation: crime_damping must be in [0, 0.1], got %.3f", vcfg.CrimeDamping)
	}
	if vcfg.BaseConfidence < 0 || vcfg.BaseConfidence > 100 {
		return eris.Errorf("valuation: base_confidence must be in [0, 100], got %.1f", vcfg.BaseConfidence)
	}
	if vcfg.ConfidenceJitter < 0 {
		return eris.Errorf("valuation: confidence_jitter must be non-negative, got %.1f", vcfg.ConfidenceJitter)
	}
	if !(rcfg.StrongBuyMax < rcfg.GoodValueMax && rcfg.GoodValueMax < rcfg.FairMax && rcfg.FairMax < rcfg.OverpricedMax) {
		return eris.New("recommend: verdict thresholds must be strictly increasing")
	}
	return nil
}
