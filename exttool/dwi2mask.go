package exttool

import (
	"errors"

	"github.com/neuroprep/dwiprep/biasfield"
	"github.com/neuroprep/dwiprep/dwivol"
)

// MaskTool derives a brain mask with MRtrix dwi2mask.
type MaskTool struct {
	// Command is the dwi2mask binary; empty means "dwi2mask" on the PATH.
	Command string
}

// GenerateMask writes the series and its gradient table into the scratch
// directory, runs dwi2mask, and reads the mask back.
func (mt MaskTool) GenerateMask(scratch *biasfield.Scratch, series *dwivol.Series) (*dwivol.Volume, error) {
	if len(series.Grad) == 0 {
		return nil, errors.New("series carries no gradient table; dwi2mask needs one")
	}

	input := scratch.Path("in.nii")
	if err := dwivol.SaveSeries(series, input); err != nil {
		return nil, err
	}

	gradPath := scratch.Path("grad.b")
	if err := series.Grad.Save(gradPath); err != nil {
		return nil, err
	}

	maskPath := scratch.Path("mask.nii")
	if err := run(commandOr(mt.Command, "dwi2mask"), nil, "-grad", gradPath, input, maskPath); err != nil {
		return nil, err
	}

	return dwivol.LoadVolume(maskPath)
}
