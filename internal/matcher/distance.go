package matcher

import (
	"github.com/sells-group/crop-advisor/internal/config"
	"github.com/sells-group/crop-advisor/internal/model"
)

// Contains reports whether every reading of q lies inside rec's inclusive
// ranges. Soil type is not compared.
func Contains(rec model.CropTolerance, q model.SoilQuery) bool {
	return rec.PH().Contains(q.PH) &&
		rec.Nitrogen().Contains(q.Nitrogen) &&
		rec.Phosphorus().Contains(q.Phosphorus) &&
		rec.Potassium().Contains(q.Potassium)
}

// Distance returns the weighted overshoot of each reading of q against rec.
// A reading inside its range, bounds included, contributes 0.
func Distance(w config.WeightConfig, rec model.CropTolerance, q model.SoilQuery) model.Breakdown {
	return model.Breakdown{
		Nitrogen:   rec.Nitrogen().Overshoot(q.Nitrogen) * w.Nitrogen,
		Phosphorus: rec.Phosphorus().Overshoot(q.Phosphorus) * w.Phosphorus,
		Potassium:  rec.Potassium().Overshoot(q.Potassium) * w.Potassium,
		PH:         rec.PH().Overshoot(q.PH) * w.PH,
	}
}
