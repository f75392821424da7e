// Package biasfield corrects low-frequency intensity inhomogeneity in a DWI
// series. The pipeline derives a brain mask when none is supplied, averages
// the b=0 volumes into a reference, hands the reference to one of two
// estimation backends, undoes the global intensity offset the N4-style
// backend introduces, and divides every volume of the series by the
// resulting field.
//
// The numerical estimators themselves are collaborators behind small
// interfaces; this package owns the orchestration, the validation, and the
// arithmetic between stages.
package biasfield

import "github.com/neuroprep/dwiprep/gradtab"

// Options selects and tunes the estimation backend. Exactly one of UseFast
// and UseN4 must be set; Run refuses to start otherwise.
type Options struct {
	// UseFast selects the masked-intensity backend: the reference is
	// multiplied by the mask and handed to a segmentation-based estimator.
	UseFast bool

	// UseN4 selects the weighted-intensity backend: the mask acts as a
	// continuous confidence weight for a smoothing-spline estimator, and
	// the returned field passes through the global scale correction.
	UseN4 bool

	// BZeroThreshold classifies unweighted volumes. Values at or below zero
	// fall back to gradtab.DefaultBZeroThreshold.
	BZeroThreshold float64

	Fast FastOptions
	N4   N4Options

	// ScratchDir is the parent directory for the per-run scratch space
	// handed to collaborators that exchange files with external programs.
	// Empty means the system temporary directory.
	ScratchDir string

	// KeepScratch leaves the scratch directory behind for debugging instead
	// of removing it when the run finishes.
	KeepScratch bool
}

func (o Options) backendCount() int {
	n := 0
	if o.UseFast {
		n++
	}
	if o.UseN4 {
		n++
	}

	return n
}

func (o Options) bzeroThreshold() float64 {
	if o.BZeroThreshold > 0 {
		return o.BZeroThreshold
	}

	return gradtab.DefaultBZeroThreshold
}

// FastOptions tunes the masked-intensity backend. Zero values mean the
// documented defaults.
type FastOptions struct {
	// Channels is the number of input channels presented to the segmenter.
	Channels int

	// Classes is the number of tissue classes to segment.
	Classes int

	// Iterations is the number of segmentation/bias-removal loop passes.
	Iterations int

	// ImageType identifies the contrast (1 T1-weighted, 2 T2-weighted, 3
	// proton density). b=0 volumes carry T2-weighted contrast.
	ImageType int
}

// DefaultFastOptions returns the tuning used when the caller overrides
// nothing.
func DefaultFastOptions() FastOptions {
	return FastOptions{}.withDefaults()
}

func (o FastOptions) withDefaults() FastOptions {
	if o.Channels <= 0 {
		o.Channels = 1
	}
	if o.Classes <= 0 {
		o.Classes = 3
	}
	if o.Iterations <= 0 {
		o.Iterations = 4
	}
	if o.ImageType <= 0 {
		o.ImageType = 2
	}

	return o
}

// N4Options tunes the weighted-intensity backend. Zero values mean the
// documented defaults; each parameter is independently overridable.
type N4Options struct {
	// ShrinkFactor subsamples the spatial dimensions during estimation.
	ShrinkFactor int

	// MeshResolutionMM is the initial b-spline mesh resolution.
	MeshResolutionMM float64

	// SplineOrder is the b-spline order of the fitted field.
	SplineOrder int

	// MaxIterations bounds the fitting loop.
	MaxIterations int

	// ConvergenceThreshold stops the fit early; the default of 0 means the
	// fit always runs MaxIterations.
	ConvergenceThreshold float64
}

// DefaultN4Options returns the tuning used when the caller overrides
// nothing.
func DefaultN4Options() N4Options {
	return N4Options{}.withDefaults()
}

func (o N4Options) withDefaults() N4Options {
	if o.ShrinkFactor <= 0 {
		o.ShrinkFactor = 4
	}
	if o.MeshResolutionMM <= 0 {
		o.MeshResolutionMM = 100
	}
	if o.SplineOrder <= 0 {
		o.SplineOrder = 3
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 1000
	}
	if o.ConvergenceThreshold < 0 {
		o.ConvergenceThreshold = 0
	}

	return o
}
