package biasfield

import (
	"errors"
	"fmt"
)

// The pipeline fails fast with one of these kinds; no stage recovers or
// retries. Correctness of the anatomical data is worth more than
// availability, so a violated precondition is always terminal.
var (
	ErrInputShape             = errors.New("input series must have exactly 4 axes")
	ErrMissingGradientScheme  = errors.New("input series has no gradient table attached")
	ErrGradientSchemeLength   = errors.New("gradient table length does not match the number of volumes")
	ErrMaskGeometry           = errors.New("mask grid does not match the input series")
	ErrWeightGeometryMismatch = errors.New("weight mask is not voxel-aligned with the reference volume")
	ErrNoB0Volumes            = errors.New("input series contains no b=0 volumes")
	ErrNoBackendSelected      = errors.New("no bias estimation backend selected")
	ErrConflictingBackends    = errors.New("more than one bias estimation backend selected")
	ErrDegenerateMask         = errors.New("mask integral is zero; bias field scale is undefined")
	ErrGeometryMismatch       = errors.New("bias field grid does not match the input series")
	ErrExternalTool           = errors.New("external tool failed")
)

// Stage names the pipeline stage an error originated from. Every error Run
// returns is a *StageError, so callers always learn where the pipeline died
// as well as why.
type Stage string

const (
	StageConfigure Stage = "configure"
	StageValidate  Stage = "validate"
	StageMask      Stage = "mask"
	StageReference Stage = "reference"
	StageEstimate  Stage = "estimate"
	StageScale     Stage = "scale"
	StageApply     Stage = "apply"
)

// StageError pairs a failure with the stage that produced it. Unwrap exposes
// the underlying kind, so errors.Is(err, ErrNoB0Volumes) and friends work
// through the wrapper.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func failedAt(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
