// Package gradtab reads, writes, and interrogates diffusion gradient tables.
// A table carries one entry per volume along the 4th axis of a DWI series:
// the gradient direction (x, y, z) and the diffusion weighting (b-value, in
// s/mm^2).
package gradtab

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// DefaultBZeroThreshold is the largest b-value that is still treated as
// unweighted (b=0). Scanners rarely store an exact zero for unweighted
// volumes, so classification uses a threshold rather than equality.
const DefaultBZeroThreshold = 10.0

// Entry is the diffusion encoding for a single volume.
type Entry struct {
	X float64
	Y float64
	Z float64
	B float64
}

// Table is an ordered gradient scheme, one Entry per axis-3 volume index.
type Table []Entry

// IsBZero reports whether the entry at index i is an unweighted volume, using
// the provided b-value threshold. Thresholds at or below zero fall back to
// DefaultBZeroThreshold.
func (t Table) IsBZero(i int, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultBZeroThreshold
	}

	return t[i].B <= threshold
}

// BZeroIndices returns the volume indices whose b-value falls at or below the
// threshold, in acquisition order.
func (t Table) BZeroIndices(threshold float64) []int {
	out := make([]int, 0, len(t))
	for i := range t {
		if t.IsBZero(i, threshold) {
			out = append(out, i)
		}
	}

	return out
}

// Load reads a gradient table in the four-column format (x y z b per line,
// whitespace or comma separated, '#' comments permitted).
func Load(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	table := make(Table, 0)

	for lineNum, line := range strings.Split(string(raw), "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}

		// The format permits commas as well as whitespace between columns
		line = strings.ReplaceAll(line, ",", " ")

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 4 {
			return nil, fmt.Errorf("gradient table %s line %d: expected 4 columns (x y z b), found %d", path, lineNum+1, len(fields))
		}

		vals := make([]float64, 4)
		for i, field := range fields {
			vals[i], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("gradient table %s line %d: %w", path, lineNum+1, err)
			}
		}

		table = append(table, Entry{X: vals[0], Y: vals[1], Z: vals[2], B: vals[3]})
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("gradient table %s contains no entries", path)
	}

	return table, nil
}

// LoadFSL reads a gradient table from the FSL bvecs/bvals file pair. bvecs
// holds three rows (x, y, and z components, one column per volume); bvals
// holds the b-values, one column per volume.
func LoadFSL(bvecsPath, bvalsPath string) (Table, error) {
	bvecsRaw, err := os.ReadFile(bvecsPath)
	if err != nil {
		return nil, pfx.Err(err)
	}

	bvalsRaw, err := os.ReadFile(bvalsPath)
	if err != nil {
		return nil, pfx.Err(err)
	}

	rows := make([][]float64, 0, 3)
	for _, line := range strings.Split(string(bvecsRaw), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		row := make([]float64, len(fields))
		for i, field := range fields {
			row[i], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("bvecs %s: %w", bvecsPath, err)
			}
		}
		rows = append(rows, row)
	}

	if len(rows) != 3 {
		return nil, fmt.Errorf("bvecs %s: expected 3 rows of direction components, found %d", bvecsPath, len(rows))
	}

	if len(rows[0]) != len(rows[1]) || len(rows[1]) != len(rows[2]) {
		return nil, fmt.Errorf("bvecs %s: rows disagree on volume count (%d, %d, %d)", bvecsPath, len(rows[0]), len(rows[1]), len(rows[2]))
	}

	bvals := make([]float64, 0, len(rows[0]))
	for _, field := range strings.Fields(string(bvalsRaw)) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("bvals %s: %w", bvalsPath, err)
		}
		bvals = append(bvals, v)
	}

	if len(bvals) != len(rows[0]) {
		return nil, fmt.Errorf("bvals %s holds %d values but bvecs %s holds %d directions", bvalsPath, len(bvals), bvecsPath, len(rows[0]))
	}

	table := make(Table, len(bvals))
	for i := range bvals {
		table[i] = Entry{X: rows[0][i], Y: rows[1][i], Z: rows[2][i], B: bvals[i]}
	}

	return table, nil
}

// Save writes the table in the four-column format.
func (t Table) Save(path string) error {
	var sb strings.Builder
	for _, e := range t {
		fmt.Fprintf(&sb, "%g %g %g %g\n", e.X, e.Y, e.Z, e.B)
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return pfx.Err(err)
	}

	return nil
}
