// Package shellmath reduces a multi-shell DWI series to one volume per
// shell, taking a statistic across each shell's volumes at every voxel.
package shellmath

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/neuroprep/dwiprep/dwivol"
	"github.com/neuroprep/dwiprep/gradtab"
	"gonum.org/v1/gonum/floats"
)

// Statistic names a per-voxel reduction across a shell's volumes.
type Statistic string

const (
	Mean    Statistic = "mean"
	Median  Statistic = "median"
	Sum     Statistic = "sum"
	Product Statistic = "product"
	RMS     Statistic = "rms"
	Norm    Statistic = "norm"
	Var     Statistic = "var"
	Std     Statistic = "std"
	Min     Statistic = "min"
	Max     Statistic = "max"
)

// All lists the supported statistics in documentation order.
func All() []Statistic {
	return []Statistic{Mean, Median, Sum, Product, RMS, Norm, Var, Std, Min, Max}
}

// Parse maps a command-line statistic name onto its Statistic.
func Parse(name string) (Statistic, error) {
	s := Statistic(strings.ToLower(name))
	for _, known := range All() {
		if s == known {
			return s, nil
		}
	}

	choices := make([]string, 0, len(All()))
	for _, known := range All() {
		choices = append(choices, string(known))
	}

	return "", fmt.Errorf("unknown statistic %q (choose one of %s)", name, strings.Join(choices, ", "))
}

// Compute groups the series into shells and reduces each shell to a single
// volume with the statistic, returning the reduced series together with the
// shell table. Output volumes are ordered by ascending b-value; a
// single-shell input reduces to a single 3-D volume. Var and std use the
// sample (n-1) estimators and therefore need at least two volumes per
// shell.
func Compute(series *dwivol.Series, stat Statistic, epsilon float64) (*dwivol.Series, []gradtab.Shell, error) {
	if len(series.Grad) == 0 {
		return nil, nil, errors.New("input series has no gradient table attached")
	}

	if len(series.Grad) != series.NVols {
		return nil, nil, fmt.Errorf("gradient table has %d rows for %d volumes", len(series.Grad), series.NVols)
	}

	shells, err := series.Grad.Shells(epsilon)
	if err != nil {
		return nil, nil, err
	}

	nvox := series.Geom.NVox()
	out := dwivol.NewSeries(series.Geom, len(shells))
	if len(shells) == 1 {
		out.NAxes = 3
	}

	vals := make(stats.Float64Data, 0, series.NVols)
	for si, shell := range shells {
		if (stat == Var || stat == Std) && len(shell.Indices) < 2 {
			return nil, nil, fmt.Errorf("%s is undefined for shell b=%g with a single volume", stat, shell.B)
		}

		member := make([][]float64, 0, len(shell.Indices))
		for _, t := range shell.Indices {
			vol, err := series.VolumeAt(t)
			if err != nil {
				return nil, nil, err
			}

			member = append(member, vol.Data)
		}

		dst := out.Data[si*nvox : (si+1)*nvox]
		for i := 0; i < nvox; i++ {
			vals = vals[:0]
			for _, data := range member {
				vals = append(vals, data[i])
			}

			v, err := reduce(stat, vals)
			if err != nil {
				return nil, nil, err
			}
			dst[i] = v
		}
	}

	return out, shells, nil
}

func reduce(stat Statistic, vals stats.Float64Data) (float64, error) {
	switch stat {
	case Mean:
		return vals.Mean()
	case Median:
		return vals.Median()
	case Sum:
		return vals.Sum()
	case Product:
		p := 1.0
		for _, v := range vals {
			p *= v
		}
		return p, nil
	case RMS:
		return math.Sqrt(floats.Dot(vals, vals) / float64(len(vals))), nil
	case Norm:
		return floats.Norm(vals, 2), nil
	case Var:
		return vals.SampleVariance()
	case Std:
		return vals.StandardDeviationSample()
	case Min:
		return vals.Min()
	case Max:
		return vals.Max()
	}

	return 0, fmt.Errorf("unknown statistic %q", stat)
}
