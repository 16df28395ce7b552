package dataset

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crop-advisor/internal/model"
)

// Validate checks every record: crop and soil type set, every bound finite
// and every range ordered. Failures are collected and reported together,
// numbered by data row (1-based, header excluded).
func Validate(records []model.CropTolerance) error {
	var errs []string

	for i, rec := range records {
		n := i + 1
		if strings.TrimSpace(rec.Crop) == "" {
			errs = append(errs, fmt.Sprintf("row %d: crop is required", n))
		}
		if strings.TrimSpace(rec.SoilType) == "" {
			errs = append(errs, fmt.Sprintf("row %d: soil type is required", n))
		}
		for _, rg := range []struct {
			name string
			r    model.Range
		}{
			{"ph", rec.PH()},
			{"nitrogen", rec.Nitrogen()},
			{"phosphorus", rec.Phosphorus()},
			{"potassium", rec.Potassium()},
		} {
			if !finite(rg.r.Min) || !finite(rg.r.Max) {
				errs = append(errs, fmt.Sprintf("row %d: %s bounds must be finite", n, rg.name))
				continue
			}
			if rg.r.Min > rg.r.Max {
				errs = append(errs, fmt.Sprintf("row %d: %s min %g > max %g", n, rg.name, rg.r.Min, rg.r.Max))
			}
		}
	}

	if len(errs) > 0 {
		return eris.Wrapf(ErrInvalidRecord, "%s", strings.Join(errs, "; "))
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
