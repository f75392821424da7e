// Package exttool runs the external neuroimaging programs the pipeline can
// delegate to: FSL fast for segmentation-based field estimation, ANTs
// N4BiasFieldCorrection for weighted estimation, and MRtrix dwi2mask for
// mask derivation. Images are handed back and forth as NIfTI files in the
// pipeline's scratch directory.
package exttool

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/neuroprep/dwiprep/biasfield"
)

// run executes a tool with its output captured. A nonzero exit or a missing
// binary wraps ErrExternalTool together with everything the tool printed.
func run(tool string, env []string, args ...string) error {
	log.Println("Running", tool, strings.Join(args, " "))

	cmd := exec.Command(tool, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %v | output: %s",
			biasfield.ErrExternalTool, tool, err, bytes.TrimSpace(out))
	}

	return nil
}

func commandOr(command, fallback string) string {
	if command != "" {
		return command
	}

	return fallback
}
