package biasfield

import (
	"fmt"

	"github.com/neuroprep/dwiprep/dwivol"
	"gonum.org/v1/gonum/floats"
)

// applyBias divides every volume of the series voxelwise by the bias field
// and returns the corrected series. The input series is left untouched.
func applyBias(series *dwivol.Series, bias *dwivol.Volume) (*dwivol.Series, error) {
	if !bias.Geom.SameGrid(series.Geom) {
		return nil, fmt.Errorf("%w: field is %dx%dx%d, series is %dx%dx%d", ErrGeometryMismatch,
			bias.Geom.Nx, bias.Geom.Ny, bias.Geom.Nz,
			series.Geom.Nx, series.Geom.Ny, series.Geom.Nz)
	}

	out := dwivol.NewSeries(series.Geom, series.NVols)
	out.NAxes = series.NAxes
	out.Grad = series.Grad
	copy(out.Data, series.Data)

	nvox := series.Geom.NVox()
	for t := 0; t < series.NVols; t++ {
		floats.Div(out.Data[t*nvox:(t+1)*nvox], bias.Data)
	}

	return out, nil
}
