package valuation

import (
	"math/rand/v2"

	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
)

// closedFormWeights is the hand-tuned per-feature rate card the fallback
// estimator prices against. Derived features carry no weight here; the
// closed form prices raw attributes only.
var closedFormWeights = map[string]float64{
	model.FeatureArea:            3200, // per sqft
	model.FeatureBedrooms:        250_000,
	model.FeatureBathrooms:       300_000,
	model.FeatureStories:         200_000,
	model.FeatureParking:         150_000,
	model.FeatureMainRoad:        350_000,
	model.FeatureGuestRoom:       180_000,
	model.FeatureBasement:        220_000,
	model.FeatureHotWaterHeating: 160_000,
	model.FeatureAirConditioning: 400_000,
	model.FeaturePreferredArea:   450_000,
	model.FeatureFurnishing:      275_000,
}

// ClosedForm is the deterministic fallback estimator used when the model
// artifact cannot be loaded or evaluated. It is pure arithmetic over the
// weight table and cannot fail.
type ClosedForm struct {
	cfg     config.ValuationConfig
	newRand func() *rand.Rand
}

// NewClosedForm builds the fallback estimator.
func NewClosedForm(cfg config.ValuationConfig, newRand func() *rand.Rand) *ClosedForm {
	return &ClosedForm{cfg: cfg, newRand: newRand}
}

// point computes the city-adjusted closed-form estimate. The error return
// is always nil; the signature matches the ensemble so either can back
// the attribution engine.
func (c *ClosedForm) point(fv model.FeatureVector, profile model.CityProfile) (float64, error) {
	var sum float64
	for _, f := range fv.Features() {
		sum += closedFormWeights[f.Name] * f.Value
	}
	return cityAdjust(sum, profile, c.cfg.CrimeDamping), nil
}

// Predict wraps the closed-form estimate in the same PricePrediction
// shape the ensemble produces, tagged with its own method so callers can
// tell a degraded answer from a model-backed one.
func (c *ClosedForm) Predict(fv model.FeatureVector, profile model.CityProfile) (model.PricePrediction, error) {
	point, _ := c.point(fv, profile)
	return buildPrediction(point, fv, c.cfg, c.newRand(), "closed_form"), nil
}
