package gradtab

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}

	return path
}

func TestLoad(t *testing.T) {
	path := writeTempFile(t, "grad.b", `# direction table
0 0 0 0
1,0,0,1000
0 1 0 1000

0 0 1 2005
`)

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(table) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(table))
	}

	if table[1].X != 1 || table[1].B != 1000 {
		t.Errorf("Comma-separated row parsed as %+v", table[1])
	}

	if table[3].B != 2005 {
		t.Errorf("Expected b=2005 in final row, got %g", table[3].B)
	}
}

func TestLoadRejectsMalformedRows(t *testing.T) {
	for _, contents := range []string{
		"0 0 0\n",
		"0 0 0 0 0\n",
		"0 0 zero 0\n",
		"# only a comment\n",
	} {
		path := writeTempFile(t, "bad.b", contents)
		if _, err := Load(path); err == nil {
			t.Errorf("Expected error for table contents %q", contents)
		}
	}
}

func TestLoadFSL(t *testing.T) {
	bvecs := writeTempFile(t, "bvecs", "0 1 0 0\n0 0 1 0\n0 0 0 1\n")
	bvals := writeTempFile(t, "bvals", "0 1000 1000 2000\n")

	table, err := LoadFSL(bvecs, bvals)
	if err != nil {
		t.Fatalf("LoadFSL: %v", err)
	}

	if len(table) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(table))
	}

	// The bvecs file is transposed relative to the table: column i becomes
	// entry i.
	if table[2].Y != 1 || table[2].B != 1000 {
		t.Errorf("Column 2 parsed as %+v", table[2])
	}
}

func TestLoadFSLLengthMismatch(t *testing.T) {
	bvecs := writeTempFile(t, "bvecs", "0 1\n0 0\n0 0\n")
	bvals := writeTempFile(t, "bvals", "0 1000 2000\n")

	if _, err := LoadFSL(bvecs, bvals); err == nil {
		t.Fatal("Expected an error when bvals and bvecs disagree on volume count")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	in := Table{
		{X: 0, Y: 0, Z: 0, B: 0},
		{X: 0.5, Y: -0.5, Z: 0.7071, B: 1000},
	}

	path := filepath.Join(t.TempDir(), "out.b")
	if err := in.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("Round trip changed entry count: %d != %d", len(out), len(in))
	}

	for i := range in {
		if math.Abs(out[i].X-in[i].X) > 1e-12 || math.Abs(out[i].B-in[i].B) > 1e-12 {
			t.Errorf("Entry %d changed in round trip: %+v != %+v", i, out[i], in[i])
		}
	}
}

func TestBZeroIndices(t *testing.T) {
	table := Table{
		{B: 0},
		{B: 5},
		{B: 1000},
		{B: 9.99},
		{B: 11},
	}

	got := table.BZeroIndices(0) // 0 falls back to the default threshold
	want := []int{0, 1, 3}

	if len(got) != len(want) {
		t.Fatalf("BZeroIndices returned %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("BZeroIndices returned %v, want %v", got, want)
		}
	}

	if got := table.BZeroIndices(1500); len(got) != len(table) {
		t.Errorf("With a huge threshold every volume is b=0; got %v", got)
	}
}
