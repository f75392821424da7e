package biasfield

import (
	"fmt"

	"github.com/neuroprep/dwiprep/dwivol"
	"gonum.org/v1/gonum/floats"
)

// buildReference computes the voxelwise mean of all b=0 volumes in the
// series. The bias field is estimated on this mean rather than on any
// diffusion-weighted volume, because the b=0 signal is the brightest and
// least direction-dependent. With a single b=0 volume the mean is that
// volume itself.
func buildReference(series *dwivol.Series, threshold float64) (*dwivol.Volume, error) {
	indices := series.Grad.BZeroIndices(threshold)
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no volume with b-value at or below %g", ErrNoB0Volumes, threshold)
	}

	ref := dwivol.NewVolume(series.Geom)
	for _, t := range indices {
		vol, err := series.VolumeAt(t)
		if err != nil {
			return nil, err
		}

		floats.Add(ref.Data, vol.Data)
	}
	floats.Scale(1/float64(len(indices)), ref.Data)

	return ref, nil
}
