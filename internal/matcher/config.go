// Package matcher ranks crops against soil readings: an exact range filter
// first, then a weighted-distance nearest match over the whole table.
package matcher

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crop-advisor/internal/config"
	"github.com/sells-group/crop-advisor/internal/model"
)

// MaxMatches is the most crops a single call ever returns.
const MaxMatches = 3

// DefaultWeights returns the fixed importance of each reading: nitrogen
// counts most, pH least.
func DefaultWeights() config.WeightConfig {
	return config.WeightConfig{
		Nitrogen:   2.0,
		Phosphorus: 1.5,
		Potassium:  1.0,
		PH:         0.5,
	}
}

// DefaultConfig returns a config.MatcherConfig with the documented defaults.
func DefaultConfig() config.MatcherConfig {
	return config.MatcherConfig{
		Threshold:        model.DefaultThreshold,
		Limit:            MaxMatches,
		FallbackSameSoil: false,
		Weights:          DefaultWeights(),
	}
}

// ValidateConfig checks that a MatcherConfig is internally consistent.
func ValidateConfig(c config.MatcherConfig) error {
	var errs []string

	weights := map[string]float64{
		"nitrogen":   c.Weights.Nitrogen,
		"phosphorus": c.Weights.Phosphorus,
		"potassium":  c.Weights.Potassium,
		"ph":         c.Weights.PH,
	}
	for _, name := range []string{"nitrogen", "phosphorus", "potassium", "ph"} {
		if weights[name] < 0 {
			errs = append(errs, fmt.Sprintf("weights.%s must be >= 0", name))
		}
	}

	if c.Threshold < 0 {
		errs = append(errs, "threshold must be >= 0")
	}
	if c.Limit < 1 || c.Limit > MaxMatches {
		errs = append(errs, fmt.Sprintf("limit must be between 1 and %d", MaxMatches))
	}

	if len(errs) > 0 {
		return eris.Errorf("matcher: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
