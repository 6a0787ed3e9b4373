package valuation

import (
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/homemetric/valuation-cli/internal/model"
)

// estimator is the capability the attribution engine needs: a point
// estimate for an arbitrary feature vector and city profile. Both the
// ensemble and the closed-form fallback satisfy it, so attributions are
// always computed against whichever estimator produced the prediction.
type estimator interface {
	point(fv model.FeatureVector, profile model.CityProfile) (float64, error)
}

// featureGroup names one explainable group and how to remove its signal
// from a valuation: zeroing features, neutralizing the city profile, or
// both.
type featureGroup struct {
	name    string
	perturb func(fv model.FeatureVector, profile model.CityProfile) (model.FeatureVector, model.CityProfile)
}

var featureGroups = []featureGroup{
	{
		name: "Property Size",
		perturb: func(fv model.FeatureVector, profile model.CityProfile) (model.FeatureVector, model.CityProfile) {
			fv.Area = 0
			return fv, profile
		},
	},
	{
		name: "Location",
		perturb: func(fv model.FeatureVector, profile model.CityProfile) (model.FeatureVector, model.CityProfile) {
			// Baseline is a city with no price signal at all: no crime
			// damping and a unit cost-of-living multiplier.
			return fv, model.CityProfile{
				City:            profile.City,
				CrimeIndex:      0,
				SafetyScore:     10,
				PriceMultiplier: 1.0,
			}
		},
	},
	{
		name: "Room Count",
		perturb: func(fv model.FeatureVector, profile model.CityProfile) (model.FeatureVector, model.CityProfile) {
			fv.Bedrooms = 0
			fv.Bathrooms = 0
			fv.Stories = 0
			fv.TotalRooms = 0
			return fv, profile
		},
	},
	{
		name: "Amenities",
		perturb: func(fv model.FeatureVector, profile model.CityProfile) (model.FeatureVector, model.CityProfile) {
			fv.Parking = 0
			fv.MainRoad = 0
			fv.GuestRoom = 0
			fv.Basement = 0
			fv.HotWaterHeating = 0
			fv.AirConditioning = 0
			fv.PreferredArea = 0
			fv.AmenityScore = 0
			return fv, profile
		},
	},
	{
		name: "Furnishing",
		perturb: func(fv model.FeatureVector, profile model.CityProfile) (model.FeatureVector, model.CityProfile) {
			fv.Furnishing = 0
			return fv, profile
		},
	},
}

// Attribute explains a point estimate by perturbation: for each feature
// group, re-run the estimator with that group's signal removed and report
// the delta as a signed percentage of the point estimate. The same input
// always yields the same attribution.
func Attribute(est estimator, fv model.FeatureVector, profile model.CityProfile, point float64) ([]model.AttributionEntry, error) {
	if point <= 0 {
		return nil, eris.Wrapf(ErrPredictionUnavailable, "cannot attribute non-positive estimate %.2f", point)
	}

	entries := make([]model.AttributionEntry, 0, len(featureGroups))
	for _, g := range featureGroups {
		pfv, pprofile := g.perturb(fv, profile)
		baseline, err := est.point(pfv, pprofile)
		if err != nil {
			return nil, err
		}

		percent := math.Round((point-baseline)/point*100*100) / 100
		entries = append(entries, model.AttributionEntry{
			Feature:     g.name,
			Description: describeContribution(g.name, percent),
			Percent:     percent,
			Direction:   direction(percent),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return math.Abs(entries[i].Percent) > math.Abs(entries[j].Percent)
	})
	return entries, nil
}

func direction(percent float64) string {
	if percent < 0 {
		return "negative"
	}
	return "positive"
}

func describeContribution(group string, percent float64) string {
	verb := "increases"
	if percent < 0 {
		verb = "decreases"
	}
	return fmt.Sprintf("%s %s the estimated value by %.2f%%", group, verb, math.Abs(percent))
}
