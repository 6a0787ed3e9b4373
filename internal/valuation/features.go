// Package valuation implements the property valuation and market
// intelligence engine: feature normalization, ensemble prediction,
// per-feature attribution, market simulation, and recommendation.
package valuation

import (
	"github.com/rotisserie/eris"

	"github.com/homemetric/valuation-cli/internal/model"
)

// Defaults applied to absent optional numeric fields. Producing some
// estimate beats rejecting input, so zero values are treated as absent
// and defaulted rather than failed.
const (
	DefaultArea      = 1500.0
	DefaultBedrooms  = 3
	DefaultBathrooms = 2
	DefaultStories   = 2
	DefaultParking   = 1
)

// Normalize maps a PropertyInput into the fixed-shape FeatureVector the
// regression artifacts are trained against. Booleans encode as 0/1 and
// furnishing status as an ordinal (unfurnished=0, semi-furnished=1,
// furnished=2).
func Normalize(in model.PropertyInput) (model.FeatureVector, error) {
	var fv model.FeatureVector

	if in.Area < 0 {
		return fv, eris.Wrapf(ErrValidation, "area must be positive, got %.2f", in.Area)
	}
	if in.Bedrooms < 0 || in.Bathrooms < 0 || in.Stories < 0 || in.Parking < 0 {
		return fv, eris.Wrap(ErrValidation, "room and parking counts must be non-negative")
	}

	furnishing, ok := in.FurnishingStatus.Ordinal()
	if !ok {
		return fv, eris.Wrapf(ErrValidation, "unknown furnishing status %q", in.FurnishingStatus)
	}

	fv.Area = defaultIfZero(in.Area, DefaultArea)
	fv.Bedrooms = defaultIfZero(float64(in.Bedrooms), DefaultBedrooms)
	fv.Bathrooms = defaultIfZero(float64(in.Bathrooms), DefaultBathrooms)
	fv.Stories = defaultIfZero(float64(in.Stories), DefaultStories)
	fv.Parking = defaultIfZero(float64(in.Parking), DefaultParking)

	fv.MainRoad = boolFeature(in.MainRoad)
	fv.GuestRoom = boolFeature(in.GuestRoom)
	fv.Basement = boolFeature(in.Basement)
	fv.HotWaterHeating = boolFeature(in.HotWaterHeating)
	fv.AirConditioning = boolFeature(in.AirConditioning)
	fv.PreferredArea = boolFeature(in.PreferredArea)
	fv.Furnishing = furnishing

	// Derived features, same engineering the artifacts were trained with.
	fv.TotalRooms = fv.Bedrooms + fv.Bathrooms
	fv.AmenityScore = fv.MainRoad + fv.GuestRoom + fv.Basement +
		fv.HotWaterHeating + fv.AirConditioning + fv.PreferredArea

	return fv, nil
}

func defaultIfZero(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
