package shellmath

import (
	"fmt"
	"os"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"github.com/neuroprep/dwiprep/dwivol"
	"github.com/neuroprep/dwiprep/gradtab"
)

// ShellReport is one row of the per-shell summary: the shell's b-value, how
// many volumes fed it, and the spread of the reduced volume.
type ShellReport struct {
	B       float64 `csv:"b_value"`
	Volumes int     `csv:"volumes"`
	Mean    float64 `csv:"mean"`
	Median  float64 `csv:"median"`
	Min     float64 `csv:"min"`
	Max     float64 `csv:"max"`
}

// Report summarizes each reduced volume of a Compute result.
func Report(result *dwivol.Series, shells []gradtab.Shell) ([]ShellReport, error) {
	if result.NVols != len(shells) {
		return nil, fmt.Errorf("%d reduced volumes for %d shells", result.NVols, len(shells))
	}

	nvox := result.Geom.NVox()
	rows := make([]ShellReport, 0, len(shells))
	for si, shell := range shells {
		data := stats.Float64Data(result.Data[si*nvox : (si+1)*nvox])

		mean, err := data.Mean()
		if err != nil {
			return nil, err
		}
		median, err := data.Median()
		if err != nil {
			return nil, err
		}
		min, err := data.Min()
		if err != nil {
			return nil, err
		}
		max, err := data.Max()
		if err != nil {
			return nil, err
		}

		rows = append(rows, ShellReport{
			B:       shell.B,
			Volumes: len(shell.Indices),
			Mean:    mean,
			Median:  median,
			Min:     min,
			Max:     max,
		})
	}

	return rows, nil
}

// WriteReport saves the rows as a CSV file with a header row.
func WriteReport(rows []ShellReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	return pfx.Err(f.Close())
}
