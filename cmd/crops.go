package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crop-advisor/internal/dataset"
	"github.com/sells-group/crop-advisor/internal/model"
)

var cropsCmd = &cobra.Command{
	Use:   "crops",
	Short: "List the active crop tolerance table",
	Long: `Print the reference table recommendations are matched against: the
--dataset file when given, otherwise the stored table, otherwise the built-in
sample. CSV and YAML output can be fed back to import.`,
	RunE: runCrops,
}

func init() {
	f := cropsCmd.Flags()
	f.String("format", "table", "output format: table, csv or yaml")
	f.String("soil-type", "", "only list crops for this soil type")
	f.String("dataset", "", "crop table file (csv, xlsx or yaml); overrides config")
	rootCmd.AddCommand(cropsCmd)
}

func runCrops(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	soil, _ := cmd.Flags().GetString("soil-type")
	path, _ := cmd.Flags().GetString("dataset")

	table, source, err := loadTable(cmd.Context(), cfg, path)
	if err != nil {
		return err
	}
	table = filterBySoil(table, soil)

	w := cmd.OutOrStdout()
	switch format {
	case "table":
		return writeCropTable(w, table, source)
	case "csv":
		return dataset.WriteCSV(w, table)
	case "yaml":
		return dataset.WriteYAML(w, table)
	default:
		return eris.Errorf("crops: unsupported format %q", format)
	}
}

func filterBySoil(table []model.CropTolerance, soil string) []model.CropTolerance {
	soil = strings.TrimSpace(soil)
	if soil == "" {
		return table
	}
	var out []model.CropTolerance
	for _, rec := range table {
		if model.SameSoilType(rec.SoilType, soil) {
			out = append(out, rec)
		}
	}
	return out
}

func writeCropTable(w io.Writer, table []model.CropTolerance, source string) error {
	header := fmt.Sprintf("%-20s %-12s %11s %13s %13s %13s\n",
		"Crop", "Soil Type", "pH", "N (mg/kg)", "P (mg/kg)", "K (mg/kg)")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "crops: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 87)); err != nil {
		return eris.Wrap(err, "crops: write table separator")
	}

	for _, c := range table {
		line := fmt.Sprintf("%-20s %-12s %11s %13s %13s %13s\n",
			c.Crop, c.SoilType,
			formatRange(c.PH()), formatRange(c.Nitrogen()), formatRange(c.Phosphorus()), formatRange(c.Potassium()))
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "crops: write table row")
		}
	}

	_, err := fmt.Fprintf(w, "\n%d crops (source: %s)\n", len(table), source)
	return eris.Wrap(err, "crops: write table footer")
}

func formatRange(r model.Range) string {
	return fmt.Sprintf("%g-%g", r.Min, r.Max)
}
