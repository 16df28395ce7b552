package dataset

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/crop-advisor/internal/model"
)

// ReadYAMLFile opens path and parses it with ReadYAML.
func ReadYAMLFile(path string) ([]model.CropTolerance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open yaml")
	}
	defer f.Close() //nolint:errcheck

	return ReadYAML(f)
}

// ReadYAML parses a YAML list of records with snake_case keys
// (crop, soil_type, ph_min, ...).
func ReadYAML(r io.Reader) ([]model.CropTolerance, error) {
	var records []model.CropTolerance
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&records); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "dataset: decode yaml")
	}
	return records, nil
}

// WriteYAML writes records in the format ReadYAML accepts.
func WriteYAML(w io.Writer, records []model.CropTolerance) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "dataset: encode yaml")
	}
	return eris.Wrap(enc.Close(), "dataset: close yaml encoder")
}
