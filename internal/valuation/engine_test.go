package valuation

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
)

func testEngine(t *testing.T, artifact *Artifact, opts ...Option) *Engine {
	t.Helper()
	e, err := New(testValuationConfig(), config.MarketConfig{}, testRecommendConfig(), artifact, opts...)
	require.NoError(t, err)
	return e
}

func TestEngineValuePuneDefault(t *testing.T) {
	e := testEngine(t, DefaultArtifact(), WithSeed(7))

	res, err := e.Value(model.PropertyInput{City: "Pune"}, puneProfile())
	require.NoError(t, err)

	assert.InDelta(t, 5_176_380, res.Prediction.PointEstimate, 1)
	assert.Equal(t, "ensemble", res.Prediction.Method)
	assert.InDelta(t, res.Prediction.UpperBound-res.Prediction.PointEstimate,
		res.Prediction.PointEstimate-res.Prediction.LowerBound, 0.001)

	require.Len(t, res.Attribution, 5)
	assert.Equal(t, "Property Size", res.Attribution[0].Feature)
	assert.Equal(t, "Location", res.Attribution[1].Feature)

	assert.Len(t, res.Market.Quotes, 5)
	assert.NotEmpty(t, res.Market.Recommendation)
	assert.NotEmpty(t, res.Market.NegotiationTip)
	assert.Equal(t, "Pune", res.CityProfile.City)
}

func TestEngineClosedFormWithoutArtifact(t *testing.T) {
	e := testEngine(t, nil, WithSeed(7))

	res, err := e.Value(model.PropertyInput{City: "Pune"}, puneProfile())
	require.NoError(t, err)

	// 6,700,000 raw closed form, x0.92 and x0.825.
	assert.InDelta(t, 5_085_300, res.Prediction.PointEstimate, 1)
	assert.Equal(t, "closed_form", res.Prediction.Method)
	assert.Empty(t, res.Prediction.ModelPredictions)
	require.Len(t, res.Attribution, 5)
	assert.Equal(t, "Property Size", res.Attribution[0].Feature)
}

func TestEngineFallbackOnBrokenEnsemble(t *testing.T) {
	// An artifact that validates but whose model cannot predict.
	artifact := &Artifact{Models: []ModelSpec{{
		Name:         "gbr",
		Weight:       1,
		Coefficients: map[string]float64{model.FeatureArea: 3300},
	}}}
	e := testEngine(t, artifact, WithSeed(7))
	e.ensemble.models[0] = &linearModel{spec: ModelSpec{Name: "gbr", Weight: 1}}

	res, err := e.Value(model.PropertyInput{City: "Pune"}, puneProfile())
	require.NoError(t, err)
	assert.Equal(t, "closed_form", res.Prediction.Method)
	assert.InDelta(t, 5_085_300, res.Prediction.PointEstimate, 1)
}

func TestEngineValidationError(t *testing.T) {
	e := testEngine(t, DefaultArtifact(), WithSeed(7))

	_, err := e.Value(model.PropertyInput{Area: -10}, puneProfile())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrValidation))
}

func TestEngineSeedReproducible(t *testing.T) {
	a := testEngine(t, DefaultArtifact(), WithSeed(99))
	b := testEngine(t, DefaultArtifact(), WithSeed(99))

	in := model.PropertyInput{Area: 2100, Bedrooms: 4, AirConditioning: true, City: "Pune"}
	resA, err := a.Value(in, puneProfile())
	require.NoError(t, err)
	resB, err := b.Value(in, puneProfile())
	require.NoError(t, err)
	assert.Equal(t, resA, resB)
}

func TestEngineRejectsBadConfig(t *testing.T) {
	bad := testValuationConfig()
	bad.VarianceFraction = 2

	_, err := New(bad, config.MarketConfig{}, testRecommendConfig(), DefaultArtifact())
	assert.Error(t, err)
}
