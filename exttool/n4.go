package exttool

import (
	"fmt"

	"github.com/neuroprep/dwiprep/biasfield"
	"github.com/neuroprep/dwiprep/dwivol"
)

// N4Tool estimates the bias field with ANTs N4BiasFieldCorrection.
type N4Tool struct {
	// Command is the N4 binary; empty means "N4BiasFieldCorrection" on the
	// PATH.
	Command string
}

// EstimateWithWeights writes the reference and the weight image into the
// scratch directory, runs N4, and reads back both the field and the
// corrected reference. Both outputs still carry N4's arbitrary overall
// intensity factor.
func (nt N4Tool) EstimateWithWeights(scratch *biasfield.Scratch, reference, weights *dwivol.Volume, opts biasfield.N4Options) (*dwivol.Volume, *dwivol.Volume, error) {
	input := scratch.Path("ref.nii")
	if err := dwivol.SaveVolume(reference, input); err != nil {
		return nil, nil, err
	}

	weightsPath := scratch.Path("weights.nii")
	if err := dwivol.SaveVolume(weights, weightsPath); err != nil {
		return nil, nil, err
	}

	correctedPath := scratch.Path("corrected.nii")
	biasPath := scratch.Path("bias.nii")

	err := run(commandOr(nt.Command, "N4BiasFieldCorrection"), nil,
		n4Args(opts, input, weightsPath, correctedPath, biasPath)...)
	if err != nil {
		return nil, nil, err
	}

	bias, err := dwivol.LoadVolume(biasPath)
	if err != nil {
		return nil, nil, err
	}

	corrected, err := dwivol.LoadVolume(correctedPath)
	if err != nil {
		return nil, nil, err
	}

	return bias, corrected, nil
}

func n4Args(opts biasfield.N4Options, input, weights, corrected, bias string) []string {
	return []string{
		"-d", "3",
		"-i", input,
		"-w", weights,
		"-o", fmt.Sprintf("[%s,%s]", corrected, bias),
		"-s", fmt.Sprint(opts.ShrinkFactor),
		"-b", fmt.Sprintf("[%g,%d]", opts.MeshResolutionMM, opts.SplineOrder),
		"-c", fmt.Sprintf("[%d,%g]", opts.MaxIterations, opts.ConvergenceThreshold),
	}
}
