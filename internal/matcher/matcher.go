package matcher

import (
	"github.com/sells-group/crop-advisor/internal/config"
	"github.com/sells-group/crop-advisor/internal/model"
)

// Matcher finds the crops best suited to a set of soil readings. It holds no
// state beyond its config and is safe for concurrent use.
type Matcher struct {
	cfg config.MatcherConfig
}

// New creates a Matcher. A non-positive or oversized Limit is clamped to
// MaxMatches.
func New(cfg config.MatcherConfig) *Matcher {
	if cfg.Limit < 1 || cfg.Limit > MaxMatches {
		cfg.Limit = MaxMatches
	}
	return &Matcher{cfg: cfg}
}

// Config returns the matcher's effective config.
func (m *Matcher) Config() config.MatcherConfig {
	return m.cfg
}

// FindMatches matches q against table with the default config.
func FindMatches(q model.SoilQuery, table []model.CropTolerance) model.MatchResult {
	return New(DefaultConfig()).FindMatches(q, table)
}

// FindMatches returns the records whose ranges contain every reading of q on
// q's soil type, in table order. When there are none it returns the records
// nearest to q by weighted distance, at most q.Threshold away, nearest
// first. table is never modified.
func (m *Matcher) FindMatches(q model.SoilQuery, table []model.CropTolerance) model.MatchResult {
	if exact := m.exact(q, table); len(exact) > 0 {
		return model.MatchResult{Kind: model.MatchExact, Matches: exact}
	}
	if nearest := m.nearest(q, table); len(nearest) > 0 {
		return model.MatchResult{Kind: model.MatchFallback, Matches: nearest}
	}
	return model.MatchResult{Kind: model.MatchNone, Matches: []model.Match{}}
}

func (m *Matcher) exact(q model.SoilQuery, table []model.CropTolerance) []model.Match {
	soil := model.FoldSoilType(q.SoilType)

	var out []model.Match
	for _, rec := range table {
		if model.FoldSoilType(rec.SoilType) != soil || !Contains(rec, q) {
			continue
		}
		out = append(out, model.Match{Crop: rec})
		if len(out) == m.cfg.Limit {
			break
		}
	}
	return out
}

func (m *Matcher) nearest(q model.SoilQuery, table []model.CropTolerance) []model.Match {
	soil := model.FoldSoilType(q.SoilType)

	var out []model.Match
	for _, rec := range table {
		if m.cfg.FallbackSameSoil && model.FoldSoilType(rec.SoilType) != soil {
			continue
		}
		b := Distance(m.cfg.Weights, rec, q)
		total := b.Total()
		if total <= q.Threshold {
			out = append(out, model.Match{Crop: rec, Distance: total, Breakdown: b})
		}
	}

	sortByDistance(out)

	if len(out) > m.cfg.Limit {
		out = out[:m.cfg.Limit]
	}
	return out
}

// sortByDistance orders matches nearest first. Insertion sort keeps equal
// distances in table order and is fine for tables of a few hundred rows.
func sortByDistance(matches []model.Match) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Distance < matches[j-1].Distance; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}
