package biasfield

import (
	"errors"
	"fmt"

	"github.com/neuroprep/dwiprep/dwivol"
)

// checkConfiguration enforces the one-backend rule and makes sure the
// selected backend actually has an estimator behind it. It runs before any
// collaborator is called and before the scratch directory exists, so a
// misconfigured run leaves nothing behind.
func checkConfiguration(opts Options, collab Collaborators, haveMask bool) error {
	switch opts.backendCount() {
	case 0:
		return ErrNoBackendSelected
	case 1:
	default:
		return ErrConflictingBackends
	}

	if opts.UseFast && collab.Fast == nil {
		return errors.New("fast backend selected without an estimator")
	}

	if opts.UseN4 && collab.N4 == nil {
		return errors.New("n4 backend selected without an estimator")
	}

	if !haveMask && collab.MaskGen == nil {
		return errors.New("no mask supplied and no mask generator available")
	}

	return nil
}

// validateSeries rejects input the rest of the pipeline cannot operate on.
func validateSeries(series *dwivol.Series) error {
	if series.NAxes != 4 {
		return fmt.Errorf("%w: got %d axes", ErrInputShape, series.NAxes)
	}

	if len(series.Grad) == 0 {
		return ErrMissingGradientScheme
	}

	if len(series.Grad) != series.NVols {
		return fmt.Errorf("%w: %d gradient rows for %d volumes", ErrGradientSchemeLength, len(series.Grad), series.NVols)
	}

	return nil
}
