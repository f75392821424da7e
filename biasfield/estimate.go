package biasfield

import (
	"fmt"
	"log"

	"github.com/neuroprep/dwiprep/dwivol"
	"gonum.org/v1/gonum/floats"
)

// estimateMasked runs the segmentation-based backend. The estimator only
// ever sees the reference with its background zeroed out, so the field it
// returns is meaningful inside the mask and arbitrary outside it.
func estimateMasked(scratch *Scratch, ref, mask *dwivol.Volume, opts FastOptions, est FastEstimator) (*dwivol.Volume, error) {
	masked := ref.Clone()
	floats.Mul(masked.Data, mask.Data)

	log.Println("masked estimation corrects intensities within the brain mask only; voxels outside it pass through unchanged")

	bias, err := est.SegmentAndEstimate(scratch, masked, opts.withDefaults())
	if err != nil {
		return nil, err
	}

	if !bias.Geom.SameGrid(ref.Geom) {
		return nil, fmt.Errorf("%w: estimated field is %dx%dx%d", ErrGeometryMismatch,
			bias.Geom.Nx, bias.Geom.Ny, bias.Geom.Nz)
	}

	return sanitizeBias(bias, mask)
}

// estimateWeighted runs the smoothing-spline backend, which treats the mask
// as a continuous weight image and therefore demands full voxel alignment
// with the reference, not just a matching grid.
func estimateWeighted(scratch *Scratch, ref, mask *dwivol.Volume, opts N4Options, est N4Estimator) (bias, corrected *dwivol.Volume, err error) {
	if !mask.Geom.SameOrientation(ref.Geom) {
		return nil, nil, ErrWeightGeometryMismatch
	}

	bias, corrected, err = est.EstimateWithWeights(scratch, ref, mask, opts.withDefaults())
	if err != nil {
		return nil, nil, err
	}

	if !bias.Geom.SameGrid(ref.Geom) || !corrected.Geom.SameGrid(ref.Geom) {
		return nil, nil, fmt.Errorf("%w: estimator output grid differs from the reference", ErrGeometryMismatch)
	}

	return bias, corrected, nil
}

// sanitizeBias enforces the strict positivity the applicator divides by.
// Outside the mask the estimator never saw real data, so a nonpositive voxel
// there is reset to the neutral value 1. Inside the mask a nonpositive voxel
// means the estimation itself went wrong, which is terminal.
func sanitizeBias(bias, mask *dwivol.Volume) (*dwivol.Volume, error) {
	out := bias.Clone()
	for i, b := range out.Data {
		if b > 0 {
			continue
		}

		if mask.Data[i] != 0 {
			return nil, fmt.Errorf("%w: bias field is %g at an in-mask voxel", ErrExternalTool, b)
		}

		out.Data[i] = 1
	}

	return out, nil
}
