package valuation

import (
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/homemetric/valuation-cli/internal/config"
	"github.com/homemetric/valuation-cli/internal/model"
)

// Engine runs the full valuation pipeline: normalization, ensemble
// prediction with closed-form fallback, attribution, market simulation,
// and recommendation. Safe for concurrent use.
type Engine struct {
	ensemble  *Ensemble
	fallback  *ClosedForm
	simulator *Simulator
	recommend *Recommender
}

// Option customizes engine construction.
type Option func(*options)

type options struct {
	newRand func() *rand.Rand
}

// WithSeed makes every stochastic component reproducible: each draw
// sequence starts from the same fixed seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.newRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(seed, seed))
		}
	}
}

// WithRandSource installs a custom generator factory. Each call must
// return a fresh generator; generators are not shared across goroutines.
func WithRandSource(newRand func() *rand.Rand) Option {
	return func(o *options) {
		o.newRand = newRand
	}
}

// New builds an engine from validated configuration and a model
// artifact. A nil artifact means prediction is unavailable and every
// valuation takes the closed-form path.
func New(vcfg config.ValuationConfig, mcfg config.MarketConfig, rcfg config.RecommendConfig, artifact *Artifact, opts ...Option) (*Engine, error) {
	if err := ValidateConfig(vcfg, rcfg); err != nil {
		return nil, err
	}

	o := options{
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		fallback:  NewClosedForm(vcfg, o.newRand),
		recommend: NewRecommender(rcfg),
	}

	sim, err := NewSimulator(mcfg, o.newRand)
	if err != nil {
		return nil, err
	}
	e.simulator = sim

	if artifact != nil {
		ensemble, err := NewEnsemble(artifact, vcfg, o.newRand)
		if err != nil {
			return nil, err
		}
		e.ensemble = ensemble
	}

	return e, nil
}

// Degraded reports whether the engine is running without a model
// artifact, so every valuation takes the closed-form path.
func (e *Engine) Degraded() bool { return e.ensemble == nil }

// Value runs one property through the pipeline. Validation failures are
// returned as-is; prediction failures degrade to the closed-form
// estimator and still produce a result.
func (e *Engine) Value(in model.PropertyInput, profile model.CityProfile) (model.ValuationResult, error) {
	fv, err := Normalize(in)
	if err != nil {
		return model.ValuationResult{}, err
	}

	pred, est, err := e.predict(fv, profile)
	if err != nil {
		return model.ValuationResult{}, err
	}

	attribution, err := Attribute(est, fv, profile, pred.PointEstimate)
	if err != nil {
		return model.ValuationResult{}, eris.Wrap(err, "attribute estimate")
	}

	quotes := e.simulator.Quotes(pred.PointEstimate)
	market := e.recommend.Compare(pred.PointEstimate, quotes)

	return model.ValuationResult{
		Property:    in,
		CityProfile: profile,
		Prediction:  pred,
		Attribution: attribution,
		Market:      market,
	}, nil
}

// predict tries the ensemble first and falls back to the closed form on
// any prediction-unavailable failure. The returned estimator is the one
// that produced the prediction, so attribution stays consistent with it.
func (e *Engine) predict(fv model.FeatureVector, profile model.CityProfile) (model.PricePrediction, estimator, error) {
	if e.ensemble == nil {
		pred, err := e.fallback.Predict(fv, profile)
		return pred, e.fallback, err
	}

	pred, err := e.ensemble.Predict(fv, profile)
	if err == nil {
		return pred, e.ensemble, nil
	}
	if !eris.Is(err, ErrPredictionUnavailable) {
		return model.PricePrediction{}, nil, err
	}

	zap.L().Warn("ensemble prediction failed, using closed-form fallback",
		zap.Error(err))
	pred, err = e.fallback.Predict(fv, profile)
	return pred, e.fallback, err
}
