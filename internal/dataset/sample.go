package dataset

import (
	"bytes"
	_ "embed"

	"github.com/sells-group/crop-advisor/internal/model"
)

//go:embed sample/crop_data.csv
var sampleCSV []byte

// Sample returns the built-in reference table. It panics if the embedded
// file is malformed, which the package tests rule out.
func Sample() []model.CropTolerance {
	records, err := ReadCSV(bytes.NewReader(sampleCSV))
	if err != nil {
		panic(err)
	}
	if err := Validate(records); err != nil {
		panic(err)
	}
	return records
}
