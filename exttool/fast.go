package exttool

import (
	"fmt"

	"github.com/neuroprep/dwiprep/biasfield"
	"github.com/neuroprep/dwiprep/dwivol"
)

// FastTool estimates the bias field with FSL's fast segmentation.
type FastTool struct {
	// Command is the fast binary; empty means "fast" on the PATH.
	Command string
}

// SegmentAndEstimate writes the masked reference into the scratch
// directory, runs fast with bias-field output enabled, and reads the field
// back. FSL names its outputs after FSLOUTPUTTYPE, so that variable is
// pinned for the child process.
func (ft FastTool) SegmentAndEstimate(scratch *biasfield.Scratch, maskedReference *dwivol.Volume, opts biasfield.FastOptions) (*dwivol.Volume, error) {
	input := scratch.Path("ref_masked.nii")
	if err := dwivol.SaveVolume(maskedReference, input); err != nil {
		return nil, err
	}

	basename := scratch.Path("fast")
	err := run(commandOr(ft.Command, "fast"),
		[]string{"FSLOUTPUTTYPE=NIFTI_GZ"},
		fastArgs(opts, basename, input)...)
	if err != nil {
		return nil, err
	}

	return dwivol.LoadVolume(basename + "_bias.nii.gz")
}

func fastArgs(opts biasfield.FastOptions, basename, input string) []string {
	return []string{
		"-S", fmt.Sprint(opts.Channels),
		"-n", fmt.Sprint(opts.Classes),
		"-I", fmt.Sprint(opts.Iterations),
		"-t", fmt.Sprint(opts.ImageType),
		"-b",
		"-o", basename,
		input,
	}
}
