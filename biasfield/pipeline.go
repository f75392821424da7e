package biasfield

import (
	"log"

	"github.com/neuroprep/dwiprep/dwivol"
	"gonum.org/v1/gonum/floats"
)

// Result holds everything a completed run produced. Corrected and Bias are
// the primary outputs; Mask and Reference are the intermediates callers
// usually want for quality control.
type Result struct {
	// Corrected is the input series divided voxelwise by Bias.
	Corrected *dwivol.Series

	// Bias is the final, strictly positive bias field. For the weighted
	// backend it already includes the global scale correction.
	Bias *dwivol.Volume

	// Mask is the binary mask the estimation ran within, whether supplied
	// or generated.
	Mask *dwivol.Volume

	// Reference is the mean b=0 volume the field was estimated on.
	Reference *dwivol.Volume

	// Scale is the global factor applied to the raw field. Always 1 for the
	// masked backend, which performs no rescaling.
	Scale float64
}

// Run drives the full correction pipeline over the series: validate, resolve
// the mask, build the b=0 reference, estimate the field with the selected
// backend, rescale it when the backend requires that, and divide it out of
// every volume. Stages run strictly in order and the first failure is
// terminal; the returned error is always a *StageError naming the stage that
// died. suppliedMask may be nil, in which case the MaskGen collaborator is
// asked for one.
func Run(series *dwivol.Series, suppliedMask *dwivol.Volume, opts Options, collab Collaborators) (*Result, error) {
	if err := checkConfiguration(opts, collab, suppliedMask != nil); err != nil {
		return nil, failedAt(StageConfigure, err)
	}

	if err := validateSeries(series); err != nil {
		return nil, failedAt(StageValidate, err)
	}

	scratch, err := NewScratch(opts.ScratchDir, opts.KeepScratch)
	if err != nil {
		return nil, failedAt(StageConfigure, err)
	}
	defer scratch.Close()

	mask, err := resolveMask(scratch, series, suppliedMask, collab.MaskGen)
	if err != nil {
		return nil, failedAt(StageMask, err)
	}
	log.Printf("mask covers %d of %d voxels", mask.NonzeroCount(), mask.Geom.NVox())

	ref, err := buildReference(series, opts.bzeroThreshold())
	if err != nil {
		return nil, failedAt(StageReference, err)
	}

	var bias *dwivol.Volume
	scale := 1.0
	if opts.UseFast {
		bias, err = estimateMasked(scratch, ref, mask, opts.Fast, collab.Fast)
		if err != nil {
			return nil, failedAt(StageEstimate, err)
		}
	} else {
		rawBias, rawCorrected, err := estimateWeighted(scratch, ref, mask, opts.N4, collab.N4)
		if err != nil {
			return nil, failedAt(StageEstimate, err)
		}

		scale, err = globalScale(ref, rawCorrected, mask)
		if err != nil {
			return nil, failedAt(StageScale, err)
		}
		log.Printf("global scale factor %.6f", scale)

		floats.Scale(scale, rawBias.Data)

		bias, err = sanitizeBias(rawBias, mask)
		if err != nil {
			return nil, failedAt(StageScale, err)
		}
	}

	corrected, err := applyBias(series, bias)
	if err != nil {
		return nil, failedAt(StageApply, err)
	}

	return &Result{
		Corrected: corrected,
		Bias:      bias,
		Mask:      mask,
		Reference: ref,
		Scale:     scale,
	}, nil
}
