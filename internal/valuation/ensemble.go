package valuation

import (
	"math"
	"math/rand/v2"

	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
)

// Ensemble combines independently trained regression models via a fixed
// weighted average and applies the city-level adjustment. Models are
// immutable after construction and safe for concurrent use.
type Ensemble struct {
	models  []Model
	weights []float64
	cfg     config.ValuationConfig
	newRand func() *rand.Rand
}

// NewEnsemble builds an ensemble from a validated artifact.
func NewEnsemble(artifact *Artifact, cfg config.ValuationConfig, newRand func() *rand.Rand) (*Ensemble, error) {
	if err := artifact.Validate(); err != nil {
		return nil, err
	}

	e := &Ensemble{cfg: cfg, newRand: newRand}
	for _, spec := range artifact.Models {
		e.models = append(e.models, &linearModel{spec: spec})
		e.weights = append(e.weights, spec.Weight)
	}
	return e, nil
}

// point computes the city-adjusted point estimate for a feature vector.
func (e *Ensemble) point(fv model.FeatureVector, profile model.CityProfile) (float64, error) {
	combined, _, err := e.rawPredictions(fv)
	if err != nil {
		return 0, err
	}
	return cityAdjust(combined, profile, e.cfg.CrimeDamping), nil
}

// rawPredictions returns the weighted combination and the per-model raw
// estimates, before city adjustment.
func (e *Ensemble) rawPredictions(fv model.FeatureVector) (float64, map[string]float64, error) {
	preds := make(map[string]float64, len(e.models))
	var combined float64
	for i, m := range e.models {
		raw, err := m.Predict(fv)
		if err != nil {
			return 0, nil, err
		}
		preds[m.Name()] = raw
		combined += e.weights[i] * raw
	}
	return combined, preds, nil
}

// Predict runs the full ensemble and wraps the point estimate in a
// PricePrediction with interval and confidence score.
func (e *Ensemble) Predict(fv model.FeatureVector, profile model.CityProfile) (model.PricePrediction, error) {
	combined, preds, err := e.rawPredictions(fv)
	if err != nil {
		return model.PricePrediction{}, err
	}

	point := cityAdjust(combined, profile, e.cfg.CrimeDamping)
	pred := buildPrediction(point, fv, e.cfg, e.newRand(), "ensemble")
	pred.ModelPredictions = preds
	return pred, nil
}

// cityAdjust applies the location adjustment: the cost-of-living
// multiplier and the crime-index damping factor.
func cityAdjust(raw float64, profile model.CityProfile, damping float64) float64 {
	multiplier := profile.PriceMultiplier
	if multiplier <= 0 {
		multiplier = 1.0
	}
	crime := math.Max(0, 1-profile.CrimeIndex*damping)
	return math.Max(0, raw*multiplier*crime)
}

// buildPrediction derives interval, confidence, and price-per-sqft from
// a point estimate. The interval is a fixed symmetric fraction of the
// point estimate and the confidence score is a base value plus a bounded
// perturbation; neither is statistically derived from model disagreement.
func buildPrediction(point float64, fv model.FeatureVector, cfg config.ValuationConfig, rng *rand.Rand, method string) model.PricePrediction {
	point = math.Round(point)
	margin := math.Round(point * cfg.VarianceFraction)

	confidence := cfg.BaseConfidence + (rng.Float64()*2-1)*cfg.ConfidenceJitter
	confidence = math.Min(100, math.Max(0, confidence))

	return model.PricePrediction{
		PointEstimate: point,
		LowerBound:    point - margin,
		UpperBound:    point + margin,
		Confidence:    math.Round(confidence*10) / 10,
		PricePerSqft:  math.Round(point/fv.Area*100) / 100,
		Method:        method,
	}
}
