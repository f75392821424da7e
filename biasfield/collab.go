package biasfield

import "github.com/neuroprep/dwiprep/dwivol"

// The pipeline talks to its numerical collaborators through these
// interfaces, one per capability, so an external program, an in-process
// estimator, and a test double are interchangeable without touching the
// pipeline logic.

// MaskGenerator derives a brain mask from the full DWI series. It is only
// consulted when the caller supplies no mask.
type MaskGenerator interface {
	GenerateMask(scratch *Scratch, series *dwivol.Series) (*dwivol.Volume, error)
}

// FastEstimator is the masked-intensity backend: a segmentation-based
// estimator that receives the reference volume with its background already
// zeroed by the mask and returns the estimated bias field.
type FastEstimator interface {
	SegmentAndEstimate(scratch *Scratch, maskedReference *dwivol.Volume, opts FastOptions) (*dwivol.Volume, error)
}

// N4Estimator is the weighted-intensity backend: a smoothing-spline
// estimator that treats the mask as a continuous weight image. It returns
// both the raw bias field and the raw corrected reference; both still carry
// the estimator's arbitrary global intensity scale, which the pipeline
// removes afterwards.
type N4Estimator interface {
	EstimateWithWeights(scratch *Scratch, reference, weights *dwivol.Volume, opts N4Options) (bias, corrected *dwivol.Volume, err error)
}

// Collaborators bundles the capabilities a Run may need. Only the selected
// backend's estimator must be non-nil; MaskGen may be nil when a mask is
// supplied.
type Collaborators struct {
	MaskGen MaskGenerator
	Fast    FastEstimator
	N4      N4Estimator
}
