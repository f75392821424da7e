package biasfield

import (
	"errors"
	"math"
	"testing"

	"github.com/neuroprep/dwiprep/gradtab"
)

func TestBuildReferenceMean(t *testing.T) {
	geom := testGeometry(4, 4, 2)

	// Volumes 0 and 2 are b=0 (b of 5 counts under the default threshold);
	// volume 1 must not contribute.
	series := testSeries(geom, []float64{0, 1000, 5}, func(ti, x, y, z int) float64 {
		switch ti {
		case 0:
			return 10
		case 2:
			return 20
		default:
			return 999
		}
	})

	ref, err := buildReference(series, gradtab.DefaultBZeroThreshold)
	if err != nil {
		t.Fatal(err)
	}

	for i, got := range ref.Data {
		if math.Abs(got-15) > 1e-12 {
			t.Fatalf("reference voxel %d is %g, want 15", i, got)
		}
	}
}

func TestBuildReferenceSingleBZero(t *testing.T) {
	geom := testGeometry(3, 3, 2)
	series := testSeries(geom, []float64{1000, 0, 2000}, func(ti, x, y, z int) float64 {
		if ti == 1 {
			return float64(x + 10*y + 100*z)
		}

		return -1
	})

	ref, err := buildReference(series, gradtab.DefaultBZeroThreshold)
	if err != nil {
		t.Fatal(err)
	}

	// The mean of a single volume is that volume.
	want, err := series.VolumeAt(1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range ref.Data {
		if ref.Data[i] != want.Data[i] {
			t.Fatalf("reference voxel %d is %g, want %g", i, ref.Data[i], want.Data[i])
		}
	}
}

func TestBuildReferenceThreshold(t *testing.T) {
	geom := testGeometry(3, 3, 2)
	series := testSeries(geom, []float64{50, 1000}, flatFill(7))

	if _, err := buildReference(series, gradtab.DefaultBZeroThreshold); !errors.Is(err, ErrNoB0Volumes) {
		t.Fatalf("got %v, want %v", err, ErrNoB0Volumes)
	}

	ref, err := buildReference(series, 80)
	if err != nil {
		t.Fatal(err)
	}

	if got := ref.At(1, 1, 1); got != 7 {
		t.Fatalf("reference voxel is %g, want 7", got)
	}
}
