// Package maskgen derives a binary brain mask from a DWI series without
// calling any external tool: mean image, Otsu threshold, largest 6-connected
// component, one dilation pass. It is the default mask provider for runs
// that neither supply a mask nor point at an external masking command.
package maskgen

import (
	"errors"
	"log"

	"github.com/neuroprep/dwiprep/biasfield"
	"github.com/neuroprep/dwiprep/dwivol"
	"gonum.org/v1/gonum/floats"
)

// DefaultBins is the histogram resolution of the threshold search.
const DefaultBins = 256

// Generator implements the pipeline's mask provider in-process.
type Generator struct {
	// Bins overrides the histogram resolution; zero means DefaultBins.
	Bins int
}

// GenerateMask thresholds the mean image of the series and cleans the
// result up to a single connected region with a one-voxel safety margin.
func (g Generator) GenerateMask(_ *biasfield.Scratch, series *dwivol.Series) (*dwivol.Volume, error) {
	mean, err := meanImage(series)
	if err != nil {
		return nil, err
	}

	threshold := OtsuThreshold(mean.Data, g.Bins)
	log.Printf("mask threshold %.4f on the mean image", threshold)

	mask := mean.Binarize(threshold)
	if mask.NonzeroCount() == 0 {
		return nil, errors.New("intensity histogram separates into a single class; cannot derive a mask")
	}

	return dilate(largestComponent(mask)), nil
}

func meanImage(series *dwivol.Series) (*dwivol.Volume, error) {
	mean := dwivol.NewVolume(series.Geom)
	for t := 0; t < series.NVols; t++ {
		vol, err := series.VolumeAt(t)
		if err != nil {
			return nil, err
		}

		floats.Add(mean.Data, vol.Data)
	}
	floats.Scale(1/float64(series.NVols), mean.Data)

	return mean, nil
}

// OtsuThreshold returns the intensity that maximizes the between-class
// variance of the data's histogram, mapped back to the intensity range.
// Values strictly above the returned threshold belong to the foreground
// class. A flat input returns its single value, leaving the foreground
// empty.
func OtsuThreshold(data []float64, bins int) float64 {
	if bins <= 0 {
		bins = DefaultBins
	}

	lo, hi := floats.Min(data), floats.Max(data)
	if hi <= lo {
		return lo
	}

	histo := make([]int, bins)
	width := (hi - lo) / float64(bins)
	for _, v := range data {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		histo[b]++
	}

	total := len(data)
	var totalWeightedSum float64
	for b, n := range histo {
		totalWeightedSum += float64(b) * float64(n)
	}

	var (
		bestBin      int
		bestVariance float64

		// Voxels at or below the candidate bin, and their weighted sum.
		backCount int
		backSum   float64
	)
	for b, n := range histo {
		backCount += n
		backSum += float64(b) * float64(n)

		foreCount := total - backCount
		foreSum := totalWeightedSum - backSum

		// All voxels on one side: no split to evaluate.
		if backCount == 0 || foreCount == 0 {
			continue
		}

		backMean := backSum / float64(backCount)
		foreMean := foreSum / float64(foreCount)
		diff := backMean - foreMean

		variance := float64(backCount) * float64(foreCount) * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			bestBin = b
		}
	}

	return lo + (float64(bestBin)+1)*width
}
