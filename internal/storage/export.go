package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/cartbox/internal/sim"
)

var csvHeader = []string{
	"t", "phase", "cart_x", "cart_y", "cart_vx", "box_x", "box_y", "box_vx",
	"box_tilt", "distance", "speed", "braking", "completed",
}

type ExportData struct {
	Run     RunMetadata  `json:"run"`
	Samples []sim.Sample `json:"samples"`
}

// ExportJSON writes a run and its samples as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []sim.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Samples: samples})
}

func WriteCSV(w io.Writer, samples []sim.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, s := range samples {
		row := []string{
			f(s.Time), s.Phase, f(s.CartX), f(s.CartY), f(s.CartVX),
			f(s.BoxX), f(s.BoxY), f(s.BoxVX), f(s.BoxTilt),
			f(s.Distance), f(s.Speed),
			strconv.FormatBool(s.Braking), strconv.FormatBool(s.Completed),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) ([]sim.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: read telemetry: %w", err)
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		var nums [10]float64
		for j, col := range []int{0, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: row %d column %s: %w", i+1, csvHeader[col], err)
			}
			nums[j] = v
		}
		braking, _ := strconv.ParseBool(rec[11])
		completed, _ := strconv.ParseBool(rec[12])

		samples = append(samples, sim.Sample{
			Time: nums[0], Phase: rec[1],
			CartX: nums[1], CartY: nums[2], CartVX: nums[3],
			BoxX: nums[4], BoxY: nums[5], BoxVX: nums[6], BoxTilt: nums[7],
			Distance: nums[8], Speed: nums[9],
			Braking: braking, Completed: completed,
		})
	}
	return samples, nil
}
