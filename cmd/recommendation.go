package main

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crop-advisor/internal/advisory"
	"github.com/sells-group/crop-advisor/internal/model"
)

const (
	msgNoSuitableCrops = "No suitable crops found for the given soil conditions."
	msgInvalidInput    = "Invalid input. Please enter numeric values for pH, nitrogen, phosphorus, and potassium."
)

// cropName is the element shape of suitable_crops.
type cropName struct {
	Crop string `json:"Crop"`
}

// recommendation is the JSON payload shared by `recommend --format json` and
// POST /recommend.
type recommendation struct {
	Match           model.MatchKind `json:"match"`
	SuitableCrops   []cropName      `json:"suitable_crops,omitempty"`
	Improvements    []string        `json:"improvements,omitempty"`
	SoilImprovement string          `json:"soil_improvement,omitempty"`
	Matches         []model.Match   `json:"matches,omitempty"`
	Error           string          `json:"error,omitempty"`
}

func newRecommendation(res model.MatchResult, soilType string) recommendation {
	if res.Empty() {
		return recommendation{Match: model.MatchNone, Error: msgNoSuitableCrops}
	}

	rec := recommendation{
		Match:        res.Kind,
		Improvements: advisory.ForCrops(res),
		Matches:      res.Matches,
	}
	for _, name := range res.Names() {
		rec.SuitableCrops = append(rec.SuitableCrops, cropName{Crop: name})
	}
	if res.Kind == model.MatchFallback {
		rec.SoilImprovement, _ = advisory.ForSoil(soilType)
	}
	return rec
}

// parseReading parses one numeric soil reading. NaN and infinities are
// rejected along with non-numbers.
func parseReading(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, eris.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("%s: %q is not a number", name, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("%s: must be finite", name)
	}
	return v, nil
}

// checkFinite rejects NaN and infinite readings already parsed as floats.
func checkFinite(q model.SoilQuery) error {
	var errs []string
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"ph", q.PH},
		{"nitrogen", q.Nitrogen},
		{"phosphorus", q.Phosphorus},
		{"potassium", q.Potassium},
		{"threshold", q.Threshold},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = append(errs, f.name+" must be finite")
		}
	}
	if q.Threshold < 0 {
		errs = append(errs, "threshold must be >= 0")
	}
	if len(errs) > 0 {
		return eris.Errorf("invalid query: %s", strings.Join(errs, "; "))
	}
	return nil
}
