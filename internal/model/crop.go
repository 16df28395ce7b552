package model

import "math"

// CropTolerance is one row of the reference table: the inclusive soil ranges
// a crop tolerates on a given soil type. Nutrient ranges are in mg/kg.
type CropTolerance struct {
	Crop     string  `json:"crop" yaml:"crop"`
	SoilType string  `json:"soil_type" yaml:"soil_type"`
	PHMin    float64 `json:"ph_min" yaml:"ph_min"`
	PHMax    float64 `json:"ph_max" yaml:"ph_max"`
	NMin     float64 `json:"n_min" yaml:"n_min"`
	NMax     float64 `json:"n_max" yaml:"n_max"`
	PMin     float64 `json:"p_min" yaml:"p_min"`
	PMax     float64 `json:"p_max" yaml:"p_max"`
	KMin     float64 `json:"k_min" yaml:"k_min"`
	KMax     float64 `json:"k_max" yaml:"k_max"`
}

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Overshoot returns max(0, Min-v, v-Max): how far v lies outside the range,
// or 0 when inside.
func (r Range) Overshoot(v float64) float64 {
	return math.Max(0, math.Max(r.Min-v, v-r.Max))
}

// PH returns the pH range.
func (c CropTolerance) PH() Range { return Range{Min: c.PHMin, Max: c.PHMax} }

// Nitrogen returns the nitrogen range.
func (c CropTolerance) Nitrogen() Range { return Range{Min: c.NMin, Max: c.NMax} }

// Phosphorus returns the phosphorus range.
func (c CropTolerance) Phosphorus() Range { return Range{Min: c.PMin, Max: c.PMax} }

// Potassium returns the potassium range.
func (c CropTolerance) Potassium() Range { return Range{Min: c.KMin, Max: c.KMax} }
