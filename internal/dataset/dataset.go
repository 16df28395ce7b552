// Package dataset loads and validates crop tolerance tables from CSV, XLSX
// and YAML files.
package dataset

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crop-advisor/internal/model"
)

var (
	// ErrUnsupportedFormat is returned for files with an unknown extension.
	ErrUnsupportedFormat = eris.New("dataset: unsupported format")

	// ErrInvalidRecord is wrapped around every validation failure.
	ErrInvalidRecord = eris.New("dataset: invalid record")
)

// Header is the column layout of tabular crop files, in export order.
var Header = []string{
	"Crop", "Soil_Type",
	"pH_min", "pH_max",
	"N_min", "N_max",
	"P_min", "P_max",
	"K_min", "K_max",
}

// Options configures Load.
type Options struct {
	Sheet string // XLSX sheet name; first sheet when empty
}

// Load reads the table at path, picking the parser from the file extension,
// and validates it. Records keep file order.
func Load(path string, opts Options) ([]model.CropTolerance, error) {
	var (
		records []model.CropTolerance
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		records, err = ReadCSVFile(path)
	case ".xlsx":
		records, err = ReadXLSX(path, opts.Sheet)
	case ".yaml", ".yml":
		records, err = ReadYAMLFile(path)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(records); err != nil {
		return nil, err
	}

	zap.L().Info("dataset: loaded table",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return records, nil
}
