package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crop-advisor/internal/model"
)

// row mirrors the tabular column names of the crop table.
type row struct {
	Crop     string  `csv:"Crop"`
	SoilType string  `csv:"Soil_Type"`
	PHMin    float64 `csv:"pH_min"`
	PHMax    float64 `csv:"pH_max"`
	NMin     float64 `csv:"N_min"`
	NMax     float64 `csv:"N_max"`
	PMin     float64 `csv:"P_min"`
	PMax     float64 `csv:"P_max"`
	KMin     float64 `csv:"K_min"`
	KMax     float64 `csv:"K_max"`
}

func (r row) record() model.CropTolerance {
	return model.CropTolerance{
		Crop:     r.Crop,
		SoilType: r.SoilType,
		PHMin:    r.PHMin, PHMax: r.PHMax,
		NMin: r.NMin, NMax: r.NMax,
		PMin: r.PMin, PMax: r.PMax,
		KMin: r.KMin, KMax: r.KMax,
	}
}

func fromRecord(c model.CropTolerance) row {
	return row{
		Crop:     c.Crop,
		SoilType: c.SoilType,
		PHMin:    c.PHMin, PHMax: c.PHMax,
		NMin: c.NMin, NMax: c.NMax,
		PMin: c.PMin, PMax: c.PMax,
		KMin: c.KMin, KMax: c.KMax,
	}
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]model.CropTolerance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open csv")
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(f)
}

// ReadCSV parses a crop table with a header row. Every header column is
// required; extra columns are ignored.
func ReadCSV(r io.Reader) ([]model.CropTolerance, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	return decode(cr)
}

// decode reads rows from any csvutil source, the first row being the header.
func decode(r csvutil.Reader) ([]model.CropTolerance, error) {
	dec, err := csvutil.NewDecoder(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.Wrap(ErrInvalidRecord, "dataset: empty file")
		}
		return nil, eris.Wrap(err, "dataset: read header")
	}
	dec.DisallowMissingColumns = true

	var records []model.CropTolerance
	for line := 2; ; line++ {
		var rw row
		if err := dec.Decode(&rw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "dataset: decode row %d", line)
		}
		records = append(records, rw.record())
	}
	return records, nil
}

// WriteCSV writes records with the standard header, readable by ReadCSV.
func WriteCSV(w io.Writer, records []model.CropTolerance) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(records) == 0 {
		// Encode writes nothing for an empty slice.
		if err := enc.EncodeHeader(row{}); err != nil {
			return eris.Wrap(err, "dataset: write header")
		}
	}

	rows := make([]row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, fromRecord(rec))
	}
	if err := enc.Encode(rows); err != nil {
		return eris.Wrap(err, "dataset: write rows")
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush csv")
}
