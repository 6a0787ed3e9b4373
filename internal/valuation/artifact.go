package valuation

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/homemetric/valuation-cli/internal/model"
)

// Model is the capability an ensemble member provides: a raw price
// estimate for a normalized feature vector, before any city adjustment.
type Model interface {
	Name() string
	Predict(fv model.FeatureVector) (float64, error)
}

// ModelSpec holds the trained parameters of one regression model as
// exported by the offline training pipeline.
type ModelSpec struct {
	Name         string             `yaml:"name"`
	Weight       float64            `yaml:"weight"`
	Intercept    float64            `yaml:"intercept"`
	Coefficients map[string]float64 `yaml:"coefficients"`
}

// Artifact is the on-disk bundle of trained models and their static
// ensemble weights.
type Artifact struct {
	Models []ModelSpec `yaml:"models"`
}

// LoadArtifact reads a model artifact from a YAML file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(ErrPredictionUnavailable, "read artifact %s: %v", path, err)
	}

	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, eris.Wrapf(ErrPredictionUnavailable, "parse artifact %s: %v", path, err)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks that the artifact is usable: at least one model, no
// empty coefficient sets, weights summing to 1.
func (a *Artifact) Validate() error {
	if len(a.Models) == 0 {
		return eris.Wrap(ErrPredictionUnavailable, "artifact has no models")
	}

	var weightSum float64
	seen := make(map[string]bool, len(a.Models))
	for _, m := range a.Models {
		if m.Name == "" {
			return eris.Wrap(ErrPredictionUnavailable, "artifact model without a name")
		}
		if seen[m.Name] {
			return eris.Wrapf(ErrPredictionUnavailable, "duplicate artifact model %q", m.Name)
		}
		seen[m.Name] = true
		if len(m.Coefficients) == 0 {
			return eris.Wrapf(ErrPredictionUnavailable, "artifact model %q has no coefficients", m.Name)
		}
		if m.Weight <= 0 {
			return eris.Wrapf(ErrPredictionUnavailable, "artifact model %q has non-positive weight", m.Name)
		}
		weightSum += m.Weight
	}

	if math.Abs(weightSum-1) > 0.001 {
		return eris.Wrapf(ErrPredictionUnavailable, "artifact weights must sum to 1, got %.3f", weightSum)
	}
	return nil
}

// linearModel evaluates one trained coefficient set against a feature
// vector in its fixed documented order.
type linearModel struct {
	spec ModelSpec
}

func (m *linearModel) Name() string { return m.spec.Name }

func (m *linearModel) Predict(fv model.FeatureVector) (float64, error) {
	if len(m.spec.Coefficients) == 0 {
		return 0, eris.Wrapf(ErrPredictionUnavailable, "model %q has no coefficients", m.spec.Name)
	}

	sum := m.spec.Intercept
	for _, f := range fv.Features() {
		sum += m.spec.Coefficients[f.Name] * f.Value
	}
	return sum, nil
}

// DefaultArtifact returns the built-in trained artifact: two linear
// regressions fit independently on the housing dataset (a gradient
// boosted model and a random forest, each distilled to coefficients),
// combined at equal weight.
func DefaultArtifact() *Artifact {
	return &Artifact{
		Models: []ModelSpec{
			{
				Name:      "gbr",
				Weight:    0.5,
				Intercept: 120_000,
				Coefficients: map[string]float64{
					model.FeatureArea:            3350,
					model.FeatureBedrooms:        235_000,
					model.FeatureBathrooms:       310_000,
					model.FeatureStories:         195_000,
					model.FeatureParking:         160_000,
					model.FeatureMainRoad:        330_000,
					model.FeatureGuestRoom:       175_000,
					model.FeatureBasement:        215_000,
					model.FeatureHotWaterHeating: 150_000,
					model.FeatureAirConditioning: 415_000,
					model.FeaturePreferredArea:   460_000,
					model.FeatureFurnishing:      280_000,
					model.FeatureTotalRooms:      15_000,
					model.FeatureAmenityScore:    20_000,
				},
			},
			{
				Name:      "rfr",
				Weight:    0.5,
				Intercept: -80_000,
				Coefficients: map[string]float64{
					model.FeatureArea:            3050,
					model.FeatureBedrooms:        270_000,
					model.FeatureBathrooms:       285_000,
					model.FeatureStories:         210_000,
					model.FeatureParking:         140_000,
					model.FeatureMainRoad:        365_000,
					model.FeatureGuestRoom:       185_000,
					model.FeatureBasement:        230_000,
					model.FeatureHotWaterHeating: 170_000,
					model.FeatureAirConditioning: 385_000,
					model.FeaturePreferredArea:   435_000,
					model.FeatureFurnishing:      265_000,
					model.FeatureTotalRooms:      22_000,
					model.FeatureAmenityScore:    12_000,
				},
			},
		},
	}
}
