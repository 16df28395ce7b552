package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crop-advisor/internal/advisory"
	"github.com/sells-group/crop-advisor/internal/model"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend crops for a set of soil readings",
	Long: `Recommend up to three crops for the given soil readings.

Crops whose tolerance ranges contain every reading on the given soil type are
listed in table order. When there are none, the nearest crops by weighted
distance (nitrogen 2.0, phosphorus 1.5, potassium 1.0, pH 0.5) within the
threshold are listed instead, nearest first.

Examples:
  # Exact match on clay soil
  recommend --ph 6.0 --nitrogen 100 --phosphorus 40 --potassium 40 --soil-type clay

  # Widen the fallback search and print JSON
  recommend --ph 6.0 --nitrogen 130 --phosphorus 40 --potassium 40 --soil-type clay --threshold 25 --format json

  # Prompt for readings
  recommend --interactive`,
	RunE: runRecommend,
}

func init() {
	addRecommendFlags(recommendCmd)
	rootCmd.AddCommand(recommendCmd)
}

func addRecommendFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("ph", 0, "soil pH")
	f.Float64("nitrogen", 0, "nitrogen (N) level, mg/kg")
	f.Float64("phosphorus", 0, "phosphorus (P) level, mg/kg")
	f.Float64("potassium", 0, "potassium (K) level, mg/kg")
	f.String("soil-type", "", "soil type (Loamy, Clay, Sandy, Acidic, Alkaline, ...)")
	f.Float64("threshold", 0, "maximum fallback distance (default from config)")
	f.String("format", "text", "output format: text, table, csv or json")
	f.String("output", "", "output file path (default: stdout)")
	f.String("dataset", "", "crop table file (csv, xlsx or yaml); overrides config")
	f.BoolP("interactive", "i", false, "prompt for readings on stdin")
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text", "table", "csv", "json":
	default:
		return eris.Errorf("recommend: unsupported format %q", format)
	}

	m, err := newMatcher(cfg.Matcher)
	if err != nil {
		return err
	}

	var q model.SoilQuery
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		q, err = promptQuery(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			// Same contract as a bad form: tell the user, exit cleanly.
			fmt.Fprintln(cmd.OutOrStdout(), msgInvalidInput)
			zap.L().Debug("recommend: invalid interactive input", zap.Error(err))
			return nil
		}
	} else {
		q, err = queryFromFlags(cmd)
		if err != nil {
			return err
		}
	}

	q.Threshold = m.Config().Threshold
	if cmd.Flags().Changed("threshold") {
		q.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if err := checkFinite(q); err != nil {
		return eris.Wrap(err, "recommend")
	}

	datasetPath, _ := cmd.Flags().GetString("dataset")
	table, source, err := loadTable(ctx, cfg, datasetPath)
	if err != nil {
		return err
	}

	res := m.FindMatches(q, table)
	zap.L().Debug("recommend: matched",
		zap.String("source", source),
		zap.Int("table", len(table)),
		zap.String("kind", string(res.Kind)),
		zap.Strings("crops", res.Names()),
	)

	outputPath, _ := cmd.Flags().GetString("output")
	w := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "recommend: create output file %s", outputPath)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	return renderResult(w, format, res, q.SoilType)
}

func queryFromFlags(cmd *cobra.Command) (model.SoilQuery, error) {
	var missing []string
	for _, name := range []string{"ph", "nitrogen", "phosphorus", "potassium", "soil-type"} {
		if !cmd.Flags().Changed(name) {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return model.SoilQuery{}, eris.Errorf("recommend: missing required flags: %s (or use --interactive)",
			strings.Join(missing, ", "))
	}

	ph, _ := cmd.Flags().GetFloat64("ph")
	n, _ := cmd.Flags().GetFloat64("nitrogen")
	p, _ := cmd.Flags().GetFloat64("phosphorus")
	k, _ := cmd.Flags().GetFloat64("potassium")
	soil, _ := cmd.Flags().GetString("soil-type")

	return model.NewSoilQuery(ph, n, p, k, strings.TrimSpace(soil)), nil
}

// promptQuery asks for each reading in turn, one line each.
func promptQuery(in io.Reader, out io.Writer) (model.SoilQuery, error) {
	sc := bufio.NewScanner(in)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", eris.Wrap(err, "prompt: read input")
			}
			return "", eris.New("prompt: unexpected end of input")
		}
		return sc.Text(), nil
	}

	fmt.Fprintln(out, "Crop Selection Based on Soil Conditions")

	readings := make([]float64, 0, 4)
	for _, p := range []struct{ name, prompt string }{
		{"ph", "Enter soil pH: "},
		{"nitrogen", "Enter nitrogen (N) level (mg/kg): "},
		{"phosphorus", "Enter phosphorus (P) level (mg/kg): "},
		{"potassium", "Enter potassium (K) level (mg/kg): "},
	} {
		line, err := ask(p.prompt)
		if err != nil {
			return model.SoilQuery{}, err
		}
		v, err := parseReading(p.name, line)
		if err != nil {
			return model.SoilQuery{}, err
		}
		readings = append(readings, v)
	}

	soil, err := ask("Enter your soil type (Loamy, Clay, Sandy, Acidic, Alkaline, etc.): ")
	if err != nil {
		return model.SoilQuery{}, err
	}

	return model.NewSoilQuery(readings[0], readings[1], readings[2], readings[3], strings.TrimSpace(soil)), nil
}

func renderResult(w io.Writer, format string, res model.MatchResult, soilType string) error {
	switch format {
	case "text":
		return writeResultText(w, res, soilType)
	case "table":
		return writeResultTable(w, res)
	case "csv":
		return writeResultCSV(w, res)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(newRecommendation(res, soilType)), "recommend: encode json")
	default:
		return eris.Errorf("recommend: unsupported format %q", format)
	}
}

// writeResultText prints the result in the interactive console layout.
func writeResultText(w io.Writer, res model.MatchResult, soilType string) error {
	var b strings.Builder

	switch res.Kind {
	case model.MatchExact:
		b.WriteString("\nBest crops for the given soil conditions:\n")
		for _, name := range res.Names() {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\nImprovement Suggestions for Selected Crops:\n")
		for _, imp := range advisory.ForCrops(res) {
			fmt.Fprintf(&b, "\n* %s\n", imp)
		}
	case model.MatchFallback:
		b.WriteString(msgNoSuitableCrops + "\n")
		b.WriteString("\nThe closest matches based on your input are:\n")
		b.WriteString("\nBest crops for the given soil conditions:\n")
		for _, name := range res.Names() {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\nImprovement Suggestions for Closest Crops:\n")
		for _, imp := range advisory.ForCrops(res) {
			fmt.Fprintf(&b, "- %s\n\n", imp)
		}
		soil, _ := advisory.ForSoil(soilType)
		fmt.Fprintf(&b, "\nSoil Improvement Suggestions: %s\n", soil)
	default:
		b.WriteString(msgNoSuitableCrops + "\n")
		b.WriteString("\nNo crops found for the given data.\n")
	}

	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "recommend: write text")
}

func writeResultTable(w io.Writer, res model.MatchResult) error {
	header := fmt.Sprintf("%-4s %-20s %-12s %-9s %9s %9s %9s %9s %9s\n",
		"#", "Crop", "Soil Type", "Match", "Distance", "N", "P", "K", "pH")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "recommend: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 97)); err != nil {
		return eris.Wrap(err, "recommend: write table separator")
	}

	if res.Empty() {
		_, err := fmt.Fprintln(w, msgNoSuitableCrops)
		return eris.Wrap(err, "recommend: write table row")
	}

	for i, m := range res.Matches {
		line := fmt.Sprintf("%-4d %-20s %-12s %-9s %9.2f %9.2f %9.2f %9.2f %9.2f\n",
			i+1, m.Crop.Crop, m.Crop.SoilType, res.Kind, m.Distance,
			m.Breakdown.Nitrogen, m.Breakdown.Phosphorus, m.Breakdown.Potassium, m.Breakdown.PH)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "recommend: write table row")
		}
	}
	return nil
}

// resultRow is one CSV line of a recommendation.
type resultRow struct {
	Rank       int     `csv:"rank"`
	Crop       string  `csv:"crop"`
	SoilType   string  `csv:"soil_type"`
	Match      string  `csv:"match"`
	Distance   float64 `csv:"distance"`
	Nitrogen   float64 `csv:"nitrogen"`
	Phosphorus float64 `csv:"phosphorus"`
	Potassium  float64 `csv:"potassium"`
	PH         float64 `csv:"ph"`
}

func writeResultCSV(w io.Writer, res model.MatchResult) error {
	rows := make([]resultRow, 0, len(res.Matches))
	for i, m := range res.Matches {
		rows = append(rows, resultRow{
			Rank:       i + 1,
			Crop:       m.Crop.Crop,
			SoilType:   m.Crop.SoilType,
			Match:      string(res.Kind),
			Distance:   m.Distance,
			Nitrogen:   m.Breakdown.Nitrogen,
			Phosphorus: m.Breakdown.Phosphorus,
			Potassium:  m.Breakdown.Potassium,
			PH:         m.Breakdown.PH,
		})
	}

	cw := csv.NewWriter(w)
	if err := csvutil.NewEncoder(cw).Encode(rows); err != nil {
		return eris.Wrap(err, "recommend: write CSV")
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "recommend: flush CSV")
}
