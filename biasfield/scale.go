package biasfield

import (
	"fmt"

	"github.com/neuroprep/dwiprep/dwivol"
	"gonum.org/v1/gonum/floats"
)

// DegenerateIntegralEpsilon is the smallest masked reference integral the
// scale corrector accepts. At or below it the integral ratio would be Inf or
// NaN, so the run fails with ErrDegenerateMask instead of emitting garbage.
const DegenerateIntegralEpsilon = 1e-12

// globalScale removes the arbitrary overall intensity factor a weighted
// estimator leaves on its output. Both integrals are restricted to mask
// voxels; the returned factor multiplies the raw bias field, so that
// dividing the input by the final field preserves the mean in-mask
// intensity.
func globalScale(ref, corrected, mask *dwivol.Volume) (float64, error) {
	inputIntegral := floats.Dot(ref.Data, mask.Data)
	if inputIntegral <= DegenerateIntegralEpsilon {
		return 0, fmt.Errorf("%w: masked reference integral is %g", ErrDegenerateMask, inputIntegral)
	}

	outputIntegral := floats.Dot(corrected.Data, mask.Data)

	return outputIntegral / inputIntegral, nil
}
