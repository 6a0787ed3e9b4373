// Package model defines the domain types shared across the valuation pipeline.
package model

// FurnishingStatus describes how furnished a property is.
type FurnishingStatus string

const (
	FurnishingUnfurnished   FurnishingStatus = "unfurnished"
	FurnishingSemiFurnished FurnishingStatus = "semi-furnished"
	FurnishingFurnished     FurnishingStatus = "furnished"
)

// Ordinal returns the encoding slot for a furnishing status
// (unfurnished=0, semi-furnished=1, furnished=2) and whether the
// status maps to a known slot. The empty string maps to unfurnished.
func (f FurnishingStatus) Ordinal() (float64, bool) {
	switch f {
	case FurnishingUnfurnished, "":
		return 0, true
	case FurnishingSemiFurnished:
		return 1, true
	case FurnishingFurnished:
		return 2, true
	default:
		return 0, false
	}
}

// PropertyInput holds the raw attributes of a property to be valued.
// Zero-valued optional numerics receive defaults during normalization;
// the struct is never mutated after construction.
type PropertyInput struct {
	Area             float64          `json:"area"` // square feet
	Bedrooms         int              `json:"bedrooms"`
	Bathrooms        int              `json:"bathrooms"`
	Stories          int              `json:"stories"`
	Parking          int              `json:"parking"`
	MainRoad         bool             `json:"mainroad"`
	GuestRoom        bool             `json:"guestroom"`
	Basement         bool             `json:"basement"`
	HotWaterHeating  bool             `json:"hotwaterheating"`
	AirConditioning  bool             `json:"airconditioning"`
	PreferredArea    bool             `json:"prefarea"`
	FurnishingStatus FurnishingStatus `json:"furnishingstatus"`
	City             string           `json:"city"`
}

// CityProfile holds location signals for a city.
type CityProfile struct {
	City            string  `json:"city"`
	CrimeIndex      float64 `json:"crime_index"`      // 0-10, higher = more crime
	SafetyScore     float64 `json:"safety_score"`     // 0-10, higher = safer
	PriceMultiplier float64 `json:"price_multiplier"` // relative cost-of-living factor
}

// NeutralCityProfile returns the fallback profile used when a city is not
// in the known table and no enrichment result is available.
func NeutralCityProfile(city string) CityProfile {
	return CityProfile{
		City:            city,
		CrimeIndex:      5.0,
		SafetyScore:     5.0,
		PriceMultiplier: 1.0,
	}
}

// FeatureVector is the normalized numeric representation of one property.
// It is owned by a single valuation request and discarded after use.
type FeatureVector struct {
	Area            float64 `json:"area"`
	Bedrooms        float64 `json:"bedrooms"`
	Bathrooms       float64 `json:"bathrooms"`
	Stories         float64 `json:"stories"`
	Parking         float64 `json:"parking"`
	MainRoad        float64 `json:"mainroad"`
	GuestRoom       float64 `json:"guestroom"`
	Basement        float64 `json:"basement"`
	HotWaterHeating float64 `json:"hotwaterheating"`
	AirConditioning float64 `json:"airconditioning"`
	PreferredArea   float64 `json:"prefarea"`
	Furnishing      float64 `json:"furnishing_score"`
	TotalRooms      float64 `json:"total_rooms"`
	AmenityScore    float64 `json:"amenity_score"`
}

// Feature is one named entry of a FeatureVector.
type Feature struct {
	Name  string
	Value float64
}

// Feature names, in the fixed vector order regression artifacts are
// trained against.
const (
	FeatureArea            = "area"
	FeatureBedrooms        = "bedrooms"
	FeatureBathrooms       = "bathrooms"
	FeatureStories         = "stories"
	FeatureParking         = "parking"
	FeatureMainRoad        = "mainroad"
	FeatureGuestRoom       = "guestroom"
	FeatureBasement        = "basement"
	FeatureHotWaterHeating = "hotwaterheating"
	FeatureAirConditioning = "airconditioning"
	FeaturePreferredArea   = "prefarea"
	FeatureFurnishing      = "furnishing_score"
	FeatureTotalRooms      = "total_rooms"
	FeatureAmenityScore    = "amenity_score"
)

// Features returns the vector entries in the fixed documented order.
func (fv FeatureVector) Features() []Feature {
	return []Feature{
		{FeatureArea, fv.Area},
		{FeatureBedrooms, fv.Bedrooms},
		{FeatureBathrooms, fv.Bathrooms},
		{FeatureStories, fv.Stories},
		{FeatureParking, fv.Parking},
		{FeatureMainRoad, fv.MainRoad},
		{FeatureGuestRoom, fv.GuestRoom},
		{FeatureBasement, fv.Basement},
		{FeatureHotWaterHeating, fv.HotWaterHeating},
		{FeatureAirConditioning, fv.AirConditioning},
		{FeaturePreferredArea, fv.PreferredArea},
		{FeatureFurnishing, fv.Furnishing},
		{FeatureTotalRooms, fv.TotalRooms},
		{FeatureAmenityScore, fv.AmenityScore},
	}
}
