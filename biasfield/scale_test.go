package biasfield

import (
	"errors"
	"math"
	"testing"

	"github.com/neuroprep/dwiprep/dwivol"
	"gonum.org/v1/gonum/floats"
)

func TestGlobalScaleUniform(t *testing.T) {
	geom := testGeometry(5, 4, 3)

	ref := dwivol.NewVolume(geom)
	for i := range ref.Data {
		ref.Data[i] = 50 + float64(i%7)
	}

	mask := dwivol.NewVolume(geom)
	for z := 1; z < geom.Nz-1; z++ {
		for y := 1; y < geom.Ny-1; y++ {
			for x := 1; x < geom.Nx-1; x++ {
				mask.SetAt(x, y, z, 1)
			}
		}
	}

	// A uniformly rescaled output must yield exactly that factor.
	for _, k := range []float64{2.5, 0.25, 1} {
		corrected := ref.Clone()
		floats.Scale(k, corrected.Data)

		scale, err := globalScale(ref, corrected, mask)
		if err != nil {
			t.Fatal(err)
		}

		if math.Abs(scale-k) > 1e-12 {
			t.Fatalf("scale for factor %g is %.15f", k, scale)
		}
	}
}

func TestGlobalScaleDegenerateMask(t *testing.T) {
	geom := testGeometry(4, 4, 2)
	ref := onesVolume(geom)

	_, err := globalScale(ref, ref.Clone(), dwivol.NewVolume(geom))
	if !errors.Is(err, ErrDegenerateMask) {
		t.Fatalf("got %v, want %v", err, ErrDegenerateMask)
	}
}
