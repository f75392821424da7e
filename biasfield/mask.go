package biasfield

import (
	"fmt"
	"log"

	"github.com/neuroprep/dwiprep/dwivol"
)

// resolveMask produces the binary mask the rest of the pipeline works
// within: the supplied mask when the caller brought one, a freshly generated
// one otherwise. Either way the result is binarized and grid-checked against
// the series before any estimator sees it.
func resolveMask(scratch *Scratch, series *dwivol.Series, supplied *dwivol.Volume, gen MaskGenerator) (*dwivol.Volume, error) {
	if supplied != nil {
		if !supplied.Geom.SameGrid(series.Geom) {
			return nil, fmt.Errorf("%w: supplied mask is %dx%dx%d", ErrMaskGeometry,
				supplied.Geom.Nx, supplied.Geom.Ny, supplied.Geom.Nz)
		}

		return supplied.Binarize(0.5), nil
	}

	log.Println("no mask supplied; deriving one from the input series")

	mask, err := gen.GenerateMask(scratch, series)
	if err != nil {
		return nil, err
	}

	if !mask.Geom.SameGrid(series.Geom) {
		return nil, fmt.Errorf("%w: generated mask is %dx%dx%d", ErrMaskGeometry,
			mask.Geom.Nx, mask.Geom.Ny, mask.Geom.Nz)
	}

	return mask.Binarize(0.5), nil
}
