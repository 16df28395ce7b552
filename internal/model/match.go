package model

// MatchKind tells the caller which path produced a MatchResult.
type MatchKind string

const (
	MatchNone     MatchKind = "none"
	MatchExact    MatchKind = "exact"
	MatchFallback MatchKind = "fallback"
)

// Breakdown holds the weighted overshoot of each reading against a record.
type Breakdown struct {
	Nitrogen   float64 `json:"nitrogen"`
	Phosphorus float64 `json:"phosphorus"`
	Potassium  float64 `json:"potassium"`
	PH         float64 `json:"ph"`
}

// Total returns the total weighted distance.
func (b Breakdown) Total() float64 {
	return b.Nitrogen + b.Phosphorus + b.Potassium + b.PH
}

// Match pairs a record with its distance from the query. Exact matches have
// a zero distance.
type Match struct {
	Crop      CropTolerance `json:"crop"`
	Distance  float64       `json:"distance"`
	Breakdown Breakdown     `json:"breakdown"`
}

// MatchResult is the ordered outcome of one matching call.
type MatchResult struct {
	Kind    MatchKind `json:"match"`
	Matches []Match   `json:"matches"`
}

// Empty reports whether no crop was recommended.
func (r MatchResult) Empty() bool {
	return len(r.Matches) == 0
}

// Names returns the crop names in result order.
func (r MatchResult) Names() []string {
	names := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		names = append(names, m.Crop.Crop)
	}
	return names
}

// Records returns the matched records in result order.
func (r MatchResult) Records() []CropTolerance {
	out := make([]CropTolerance, 0, len(r.Matches))
	for _, m := range r.Matches {
		out = append(out, m.Crop)
	}
	return out
}
