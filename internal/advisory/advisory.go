// Package advisory holds the fixed improvement text shown next to crop
// recommendations.
package advisory

import (
	"fmt"
	"strings"

	"github.com/sells-group/crop-advisor/internal/model"
)

const (
	noCropSuggestion = "No specific improvement suggestions available."
	noSoilSuggestion = "No specific suggestions available for this soil type."
)

var cropSuggestions = map[string]string{
	"Corn":           "\n- Ensure consistent moisture\n- Use nitrogen-rich fertilizers\n- Use practice crop rotation.",
	"Soybeans":       "\n- Inoculate with rhizobium bacteria for better nitrogen fixation\n- Manage weeds effectively.",
	"Wheat":          "\n- Apply phosphorus and potassium fertilizers\n- Consider disease-resistant varieties.",
	"Rice":           "\n- Maintain water levels\n- Use nitrogen fertilizers\n- Ensure proper pest management.",
	"Potatoes":       "\n- Ensure adequate drainage\n- Apply balanced fertilizers\n- Manage pests effectively.",
	"Carrots":        "\n- Use sandy loam for best results\n- Thin seedlings\n- Keep soil consistently moist.",
	"Tomatoes":       "\n- Provide support for plants\n- Use organic matter\n- Ensure consistent watering.",
	"Lettuce":        "\n- Keep soil moist and shaded during hot weather\n- Consider planting in succession.",
	"Cabbage":        "\n- Ensure adequate spacing\n- Monitor for pests\n- Apply nitrogen-rich fertilizers.",
	"Peppers":        "\n- Provide consistent moisture\n- Apply mulch to retain soil temperature\n- Fertilize during the growing season.",
	"Strawberries":   "\n- Ensure good drainage\n- Mulch to retain moisture\n- Fertilize during flowering.",
	"Barley":         "\n- Incorporate good drainage\n- Use nitrogen and phosphorus fertilizers\n- Monitor for pests.",
	"Oats":           "\n- Plant early in the season\n- Use nitrogen fertilizers\n- Ensure good drainage.",
	"Rye":            "\n- Incorporate as a cover crop\n- Manage moisture levels\n- Practice crop rotation.",
	"Millet":         "\n- Ensure good drainage\n- Use minimal fertilizers\n- Manage weeds effectively.",
	"Sorghum":        "\n- Plant in warm soil\n- Provide sufficient water\n- Manage pests effectively.",
	"Cucumbers":      "\n- Provide trellises for support\n- Keep soil consistently moist\n- Monitor for pests.",
	"Pumpkins":       "\n- Provide plenty of space for growth\n- Maintain consistent moisture\n- Control pests.",
	"Peas":           "\n- Inoculate with rhizobia\n- Provide support for climbing varieties\n- Keep soil cool and moist.",
	"Melons":         "\n- Provide plenty of space for growth\n- Keep soil moist\n- Use mulch to retain moisture.",
	"Sugar Beets":    "\n- Use well-drained soil\n- Apply nitrogen fertilizers\n- Monitor for pests.",
	"Tobacco":        "\n- Use well-drained, fertile soil\n- Consider crop rotation to manage soil health.",
	"Cassava":        "\n- Ensure adequate space for growth\n- Manage moisture levels\n- Control pests.",
	"Sweet Potatoes": "\n- Plant in well-drained, sandy loam\n- Monitor for pests and diseases.",
	"Chickpeas":      "\n- Plant in well-drained soil\n- Manage weeds\n- Avoid overwatering.",
}

// Keys are case-folded soil types.
var soilSuggestions = map[string]string{
	"loamy":    "Maintain good organic matter levels.\nConsider adding compost or aged manure.",
	"clay":     "Improve drainage by adding sand and organic matter.\nConsider using raised beds.",
	"sandy":    "Enhance nutrient retention by adding organic matter.\nUse mulch to retain moisture.",
	"acidic":   "Add lime to increase pH.\nUse organic matter to improve nutrient retention.",
	"alkaline": "Consider adding sulfur to lower pH.\nEnsure good drainage to prevent salt accumulation.",
}

// ForCrop returns the improvement text for a crop name. The lookup is exact.
func ForCrop(name string) (string, bool) {
	s, ok := cropSuggestions[name]
	if !ok {
		return noCropSuggestion, false
	}
	return s, true
}

// ForCrops returns one "<crop>: <text>" line per match, in result order.
func ForCrops(res model.MatchResult) []string {
	lines := make([]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		s, _ := ForCrop(m.Crop.Crop)
		lines = append(lines, fmt.Sprintf("%s: %s", m.Crop.Crop, s))
	}
	return lines
}

// ForSoil returns the soil improvement text for a soil type, ignoring case
// and surrounding whitespace.
func ForSoil(soilType string) (string, bool) {
	s, ok := soilSuggestions[model.FoldSoilType(strings.TrimSpace(soilType))]
	if !ok {
		return noSoilSuggestion, false
	}
	return s, true
}

// Crops returns the names of every crop with advisory text.
func Crops() []string {
	names := make([]string, 0, len(cropSuggestions))
	for name := range cropSuggestions {
		names = append(names, name)
	}
	return names
}
