package shellmath

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neuroprep/dwiprep/dwivol"
	"github.com/neuroprep/dwiprep/gradtab"
)

func fixtureSeries(bvals []float64, fill func(t, i int) float64) *dwivol.Series {
	geom := dwivol.Geometry{Nx: 3, Ny: 2, Nz: 2, Dx: 2, Dy: 2, Dz: 2}

	s := dwivol.NewSeries(geom, len(bvals))
	for _, b := range bvals {
		s.Grad = append(s.Grad, gradtab.Entry{B: b})
	}

	nvox := geom.NVox()
	for t := 0; t < len(bvals); t++ {
		for i := 0; i < nvox; i++ {
			s.Data[t*nvox+i] = fill(t, i)
		}
	}

	return s
}

// Two shells: a single b=0 volume of constant 5, and a b=1000 shell whose
// voxel i sees the values {i, 2i, 6}.
func twoShellFixture() *dwivol.Series {
	return fixtureSeries([]float64{0, 1000, 1010, 990}, func(t, i int) float64 {
		switch t {
		case 0:
			return 5
		case 1:
			return float64(i)
		case 2:
			return float64(2 * i)
		default:
			return 6
		}
	})
}

func TestComputePerStatistic(t *testing.T) {
	// Expectations at voxel 2, where the b=1000 shell sees {2, 4, 6}.
	for _, v := range []struct {
		stat       Statistic
		wantShell0 float64
		wantShell1 float64
	}{
		{Mean, 5, 4},
		{Median, 5, 4},
		{Sum, 5, 12},
		{Product, 5, 48},
		{RMS, 5, math.Sqrt(56.0 / 3.0)},
		{Norm, 5, math.Sqrt(56.0)},
		{Min, 5, 2},
		{Max, 5, 6},
	} {
		out, shells, err := Compute(twoShellFixture(), v.stat, 0)
		if err != nil {
			t.Fatalf("%s: %v", v.stat, err)
		}

		if len(shells) != 2 || out.NVols != 2 || out.NAxes != 4 {
			t.Fatalf("%s: got %d shells, %d volumes, %d axes", v.stat, len(shells), out.NVols, out.NAxes)
		}
		if shells[0].B != 0 || shells[1].B != 1000 {
			t.Fatalf("%s: shell b-values %g and %g, want 0 and 1000", v.stat, shells[0].B, shells[1].B)
		}

		nvox := out.Geom.NVox()
		if got := out.Data[2]; math.Abs(got-v.wantShell0) > 1e-12 {
			t.Fatalf("%s: shell 0 voxel 2 is %g, want %g", v.stat, got, v.wantShell0)
		}
		if got := out.Data[nvox+2]; math.Abs(got-v.wantShell1) > 1e-12 {
			t.Fatalf("%s: shell 1 voxel 2 is %g, want %g", v.stat, got, v.wantShell1)
		}
	}
}

func TestComputeVarStd(t *testing.T) {
	// One shell of three volumes; voxel i sees {i, 2i, 6}. At voxel 2 the
	// sample variance of {2, 4, 6} is 4.
	single := func() *dwivol.Series {
		return fixtureSeries([]float64{1000, 1010, 990}, func(t, i int) float64 {
			switch t {
			case 0:
				return float64(i)
			case 1:
				return float64(2 * i)
			default:
				return 6
			}
		})
	}

	out, shells, err := Compute(single(), Var, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(shells) != 1 || out.NVols != 1 || out.NAxes != 3 {
		t.Fatalf("got %d shells, %d volumes, %d axes; want a single 3-D volume", len(shells), out.NVols, out.NAxes)
	}
	if got := out.Data[2]; math.Abs(got-4) > 1e-12 {
		t.Fatalf("var at voxel 2 is %g, want 4", got)
	}

	out, _, err = Compute(single(), Std, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Data[2]; math.Abs(got-2) > 1e-12 {
		t.Fatalf("std at voxel 2 is %g, want 2", got)
	}
}

func TestComputeVarNeedsTwoVolumes(t *testing.T) {
	// The b=0 shell has a single volume, so the sample estimators have no
	// degrees of freedom there.
	_, _, err := Compute(twoShellFixture(), Var, 0)
	if err == nil || !strings.Contains(err.Error(), "var") {
		t.Fatalf("got %v, want an error naming var", err)
	}
}

func TestComputeValidation(t *testing.T) {
	noGrad := twoShellFixture()
	noGrad.Grad = nil
	if _, _, err := Compute(noGrad, Mean, 0); err == nil {
		t.Fatal("expected an error for a series without a gradient table")
	}

	short := twoShellFixture()
	short.Grad = short.Grad[:2]
	if _, _, err := Compute(short, Mean, 0); err == nil {
		t.Fatal("expected an error for a short gradient table")
	}
}

func TestParse(t *testing.T) {
	stat, err := Parse("MEAN")
	if err != nil || stat != Mean {
		t.Fatalf("got %q, %v; want mean", stat, err)
	}

	if _, err := Parse("mode"); err == nil {
		t.Fatal("expected an error for an unsupported statistic")
	}
}

func TestReport(t *testing.T) {
	out, shells, err := Compute(twoShellFixture(), Mean, 0)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := Report(out, shells)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if r := rows[0]; r.B != 0 || r.Volumes != 1 || r.Mean != 5 || r.Median != 5 || r.Min != 5 || r.Max != 5 {
		t.Fatalf("b=0 row is %+v", r)
	}

	// The mean volume of the b=1000 shell holds i+2 at voxel i, i in 0..11.
	if r := rows[1]; r.B != 1000 || r.Volumes != 3 ||
		math.Abs(r.Mean-7.5) > 1e-12 || math.Abs(r.Median-7.5) > 1e-12 ||
		r.Min != 2 || r.Max != 13 {
		t.Fatalf("b=1000 row is %+v", r)
	}
}

func TestWriteReport(t *testing.T) {
	out, shells, err := Compute(twoShellFixture(), Mean, 0)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := Report(out, shells)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "shells.csv")
	if err := WriteReport(rows, path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header plus two rows", len(lines))
	}
	if got := strings.TrimSpace(lines[0]); got != "b_value,volumes,mean,median,min,max" {
		t.Fatalf("header is %q", got)
	}
	if !strings.Contains(lines[2], "7.5") {
		t.Fatalf("b=1000 row %q lacks the expected mean", lines[2])
	}
}
