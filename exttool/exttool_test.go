package exttool

import (
	"errors"
	"reflect"
	"testing"

	"github.com/neuroprep/dwiprep/biasfield"
)

var (
	_ biasfield.FastEstimator = FastTool{}
	_ biasfield.N4Estimator   = N4Tool{}
	_ biasfield.MaskGenerator = MaskTool{}
)

func TestFastArgs(t *testing.T) {
	opts := biasfield.FastOptions{Channels: 1, Classes: 3, Iterations: 4, ImageType: 2}

	got := fastArgs(opts, "/tmp/s/fast", "/tmp/s/ref_masked.nii")
	want := []string{
		"-S", "1",
		"-n", "3",
		"-I", "4",
		"-t", "2",
		"-b",
		"-o", "/tmp/s/fast",
		"/tmp/s/ref_masked.nii",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fast invoked as %v, want %v", got, want)
	}
}

func TestN4Args(t *testing.T) {
	for _, v := range []struct {
		name string
		opts biasfield.N4Options
		want []string
	}{
		{
			name: "defaults",
			opts: biasfield.N4Options{ShrinkFactor: 4, MeshResolutionMM: 100, SplineOrder: 3, MaxIterations: 1000, ConvergenceThreshold: 0},
			want: []string{
				"-d", "3",
				"-i", "/s/ref.nii",
				"-w", "/s/weights.nii",
				"-o", "[/s/corrected.nii,/s/bias.nii]",
				"-s", "4",
				"-b", "[100,3]",
				"-c", "[1000,0]",
			},
		},
		{
			name: "tuned",
			opts: biasfield.N4Options{ShrinkFactor: 2, MeshResolutionMM: 150.5, SplineOrder: 4, MaxIterations: 250, ConvergenceThreshold: 1e-6},
			want: []string{
				"-d", "3",
				"-i", "/s/ref.nii",
				"-w", "/s/weights.nii",
				"-o", "[/s/corrected.nii,/s/bias.nii]",
				"-s", "2",
				"-b", "[150.5,4]",
				"-c", "[250,1e-06]",
			},
		},
	} {
		got := n4Args(v.opts, "/s/ref.nii", "/s/weights.nii", "/s/corrected.nii", "/s/bias.nii")
		if !reflect.DeepEqual(got, v.want) {
			t.Fatalf("%s: N4 invoked as %v, want %v", v.name, got, v.want)
		}
	}
}

func TestCommandOr(t *testing.T) {
	if got := commandOr("", "fast"); got != "fast" {
		t.Fatalf("default command is %q, want fast", got)
	}
	if got := commandOr("/opt/fsl/bin/fast", "fast"); got != "/opt/fsl/bin/fast" {
		t.Fatalf("override ignored, got %q", got)
	}
}

func TestRunMissingBinary(t *testing.T) {
	err := run("dwiprep-test-no-such-binary", nil, "-x")
	if !errors.Is(err, biasfield.ErrExternalTool) {
		t.Fatalf("got %v, want %v", err, biasfield.ErrExternalTool)
	}
}
