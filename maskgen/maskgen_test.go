package maskgen

import (
	"testing"

	"github.com/neuroprep/dwiprep/biasfield"
	"github.com/neuroprep/dwiprep/dwivol"
)

var _ biasfield.MaskGenerator = Generator{}

func testGeometry(nx, ny, nz int) dwivol.Geometry {
	return dwivol.Geometry{
		Nx: nx, Ny: ny, Nz: nz,
		Dx: 2, Dy: 2, Dz: 2,
		SFormCode: 1,
		SRowX:     [4]float64{2, 0, 0, -20},
		SRowY:     [4]float64{0, 2, 0, -20},
		SRowZ:     [4]float64{0, 0, 2, -10},
	}
}

func TestOtsuThresholdBimodal(t *testing.T) {
	// Two well-separated clusters with a little spread each.
	var data []float64
	for i := 0; i < 300; i++ {
		data = append(data, 10+float64(i%5))
	}
	for i := 0; i < 100; i++ {
		data = append(data, 100+float64(i%7))
	}

	threshold := OtsuThreshold(data, 0)
	if threshold <= 14 || threshold >= 100 {
		t.Fatalf("threshold %g does not separate the clusters", threshold)
	}

	fore := 0
	for _, v := range data {
		if v > threshold {
			fore++
		}
	}
	if fore != 100 {
		t.Fatalf("threshold %g keeps %d foreground values, want 100", threshold, fore)
	}
}

func TestOtsuThresholdFlat(t *testing.T) {
	data := []float64{3, 3, 3, 3}
	if got := OtsuThreshold(data, 0); got != 3 {
		t.Fatalf("flat input thresholded at %g, want 3", got)
	}
}

func TestLargestComponent(t *testing.T) {
	geom := testGeometry(10, 10, 6)
	mask := dwivol.NewVolume(geom)

	// A 2x2x2 cube and a separate 2-voxel bar.
	for z := 1; z < 3; z++ {
		for y := 1; y < 3; y++ {
			for x := 1; x < 3; x++ {
				mask.SetAt(x, y, z, 1)
			}
		}
	}
	mask.SetAt(7, 7, 4, 1)
	mask.SetAt(8, 7, 4, 1)

	out := largestComponent(mask)
	if got := out.NonzeroCount(); got != 8 {
		t.Fatalf("largest component has %d voxels, want 8", got)
	}
	if out.At(7, 7, 4) != 0 || out.At(8, 7, 4) != 0 {
		t.Fatal("smaller component survived")
	}
	if out.At(1, 1, 1) != 1 || out.At(2, 2, 2) != 1 {
		t.Fatal("largest component lost voxels")
	}
}

func TestLargestComponentJoinsAcrossSlices(t *testing.T) {
	geom := testGeometry(6, 6, 4)
	mask := dwivol.NewVolume(geom)

	// A U shape: two bars connected only through the far slice, so the
	// two arms receive different provisional labels and must be joined.
	for z := 0; z < 4; z++ {
		mask.SetAt(1, 1, z, 1)
		mask.SetAt(4, 1, z, 1)
	}
	for x := 1; x <= 4; x++ {
		mask.SetAt(x, 1, 3, 1)
	}

	// Plus a 3-voxel distractor.
	mask.SetAt(1, 4, 0, 1)
	mask.SetAt(2, 4, 0, 1)
	mask.SetAt(3, 4, 0, 1)

	out := largestComponent(mask)
	if got := out.NonzeroCount(); got != 10 {
		t.Fatalf("largest component has %d voxels, want 10", got)
	}
	if out.At(1, 1, 0) != 1 || out.At(4, 1, 0) != 1 {
		t.Fatal("arms of the joined component lost voxels")
	}
	if out.At(2, 4, 0) != 0 {
		t.Fatal("distractor survived")
	}
}

func TestDilate(t *testing.T) {
	geom := testGeometry(5, 5, 5)
	mask := dwivol.NewVolume(geom)
	mask.SetAt(2, 2, 2, 1)

	out := dilate(mask)
	if got := out.NonzeroCount(); got != 7 {
		t.Fatalf("dilated point has %d voxels, want 7", got)
	}
	for _, v := range []struct{ x, y, z int }{
		{2, 2, 2}, {1, 2, 2}, {3, 2, 2}, {2, 1, 2}, {2, 3, 2}, {2, 2, 1}, {2, 2, 3},
	} {
		if out.At(v.x, v.y, v.z) != 1 {
			t.Fatalf("voxel (%d,%d,%d) missing from dilation", v.x, v.y, v.z)
		}
	}

	// Clipped at the volume edge.
	edge := dwivol.NewVolume(geom)
	edge.SetAt(0, 0, 0, 1)
	if got := dilate(edge).NonzeroCount(); got != 4 {
		t.Fatalf("dilated corner has %d voxels, want 4", got)
	}
}

func TestGenerateMask(t *testing.T) {
	geom := testGeometry(10, 10, 6)

	series := dwivol.NewSeries(geom, 2)
	for ti := 0; ti < 2; ti++ {
		vol, err := series.VolumeAt(ti)
		if err != nil {
			t.Fatal(err)
		}

		for z := 0; z < geom.Nz; z++ {
			for y := 0; y < geom.Ny; y++ {
				for x := 0; x < geom.Nx; x++ {
					v := 1.0
					if x >= 3 && x <= 6 && y >= 3 && y <= 6 && z >= 2 && z <= 3 {
						v = 100
					}
					// An isolated bright voxel far from the block.
					if x == 9 && y == 9 && z == 5 {
						v = 100
					}
					vol.SetAt(x, y, z, v)
				}
			}
		}
	}

	mask, err := Generator{}.GenerateMask(nil, series)
	if err != nil {
		t.Fatal(err)
	}

	// The 4x4x2 block plus one dilation layer on each face.
	if got := mask.NonzeroCount(); got != 96 {
		t.Fatalf("mask covers %d voxels, want 96", got)
	}
	if mask.At(5, 5, 2) != 1 {
		t.Fatal("block center missing from the mask")
	}
	if mask.At(2, 3, 2) != 1 {
		t.Fatal("dilation margin missing from the mask")
	}
	if mask.At(9, 9, 5) != 0 {
		t.Fatal("isolated speck survived into the mask")
	}
	if mask.At(0, 0, 0) != 0 {
		t.Fatal("background leaked into the mask")
	}
}
