package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange_Contains(t *testing.T) {
	r := Range{Min: 5.5, Max: 7.0}

	assert.True(t, r.Contains(5.5))
	assert.True(t, r.Contains(7.0))
	assert.True(t, r.Contains(6.2))
	assert.False(t, r.Contains(5.49))
	assert.False(t, r.Contains(7.01))
}

func TestRange_Overshoot(t *testing.T) {
	r := Range{Min: 80, Max: 120}
	tests := []struct {
		name string
		v    float64
		want float64
	}{
		{"inside", 100, 0},
		{"at min", 80, 0},
		{"at max", 120, 0},
		{"below", 70, 10},
		{"above", 130, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.Overshoot(tt.v), 1e-9)
		})
	}
}

func TestFoldSoilType(t *testing.T) {
	assert.Equal(t, "clayey", FoldSoilType("Clayey"))
	assert.Equal(t, " loamy ", FoldSoilType(" LOAMY "))
	assert.False(t, SameSoilType("Clay ", "clay"))
	assert.True(t, SameSoilType("Sandy", "sANDY"))
	assert.False(t, SameSoilType("sandy", "clay"))
}

func TestNewSoilQuery(t *testing.T) {
	q := NewSoilQuery(6.0, 100, 40, 40, "Clayey")
	assert.InDelta(t, DefaultThreshold, q.Threshold, 1e-9)
	assert.Equal(t, "Clayey", q.SoilType)
}

func TestMatchResult_Helpers(t *testing.T) {
	r := MatchResult{
		Kind: MatchFallback,
		Matches: []Match{
			{Crop: CropTolerance{Crop: "Rice"}, Distance: 1},
			{Crop: CropTolerance{Crop: "Wheat"}, Distance: 2},
		},
	}
	assert.False(t, r.Empty())
	assert.Equal(t, []string{"Rice", "Wheat"}, r.Names())
	assert.Len(t, r.Records(), 2)

	assert.True(t, MatchResult{Kind: MatchNone}.Empty())
	assert.Empty(t, MatchResult{}.Names())
}

func TestBreakdown_Total(t *testing.T) {
	b := Breakdown{Nitrogen: 20, Phosphorus: 1.5, Potassium: 1, PH: 0.25}
	assert.InDelta(t, 22.75, b.Total(), 1e-9)
}
