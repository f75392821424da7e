package biasfield

import (
	"errors"
	"math"
	"testing"

	"github.com/neuroprep/dwiprep/dwivol"
)

func TestApplyBiasRoundTrip(t *testing.T) {
	geom := testGeometry(6, 5, 4)

	bias := dwivol.NewVolume(geom)
	for z := 0; z < geom.Nz; z++ {
		for y := 0; y < geom.Ny; y++ {
			for x := 0; x < geom.Nx; x++ {
				bias.SetAt(x, y, z, 0.9+0.05*float64(x)+0.02*float64(y))
			}
		}
	}

	clean := func(ti, x, y, z int) float64 {
		return 10 + float64(ti) + float64(x+y+z)
	}

	observed := testSeries(geom, []float64{0, 1000, 1000}, func(ti, x, y, z int) float64 {
		return clean(ti, x, y, z) * bias.At(x, y, z)
	})

	corrected, err := applyBias(observed, bias)
	if err != nil {
		t.Fatal(err)
	}

	for ti := 0; ti < corrected.NVols; ti++ {
		vol, err := corrected.VolumeAt(ti)
		if err != nil {
			t.Fatal(err)
		}

		for z := 0; z < geom.Nz; z++ {
			for y := 0; y < geom.Ny; y++ {
				for x := 0; x < geom.Nx; x++ {
					if got, want := vol.At(x, y, z), clean(ti, x, y, z); math.Abs(got-want) > 1e-9 {
						t.Fatalf("volume %d voxel (%d,%d,%d) is %g, want %g", ti, x, y, z, got, want)
					}
				}
			}
		}
	}

	if got, want := len(corrected.Grad), len(observed.Grad); got != want {
		t.Fatalf("corrected series carries %d gradient rows, want %d", got, want)
	}

	// The observed series must be untouched.
	first, err := observed.VolumeAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := first.At(0, 0, 0), 10*bias.At(0, 0, 0); math.Abs(got-want) > 1e-12 {
		t.Fatalf("input series modified: voxel is %g, want %g", got, want)
	}
}

func TestApplyBiasGeometryMismatch(t *testing.T) {
	series := testSeries(testGeometry(4, 4, 2), []float64{0}, flatFill(1))
	bias := onesVolume(testGeometry(4, 4, 3))

	_, err := applyBias(series, bias)
	if !errors.Is(err, ErrGeometryMismatch) {
		t.Fatalf("got %v, want %v", err, ErrGeometryMismatch)
	}
}
