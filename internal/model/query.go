package model

// DefaultThreshold is the maximum total weighted distance admitted for a
// fallback match when the caller does not choose one.
const DefaultThreshold = 5.0

// SoilQuery holds one set of soil readings to match against the table.
type SoilQuery struct {
	PH         float64 `json:"ph"`
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
	SoilType   string  `json:"soil_type"`
	Threshold  float64 `json:"threshold"`
}

// NewSoilQuery builds a query with DefaultThreshold.
func NewSoilQuery(ph, nitrogen, phosphorus, potassium float64, soilType string) SoilQuery {
	return SoilQuery{
		PH:         ph,
		Nitrogen:   nitrogen,
		Phosphorus: phosphorus,
		Potassium:  potassium,
		SoilType:   soilType,
		Threshold:  DefaultThreshold,
	}
}
