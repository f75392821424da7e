package gradtab

import (
	"fmt"
	"sort"
)

// DefaultShellEpsilon is the widest spread of b-values that are still counted
// as one shell. Scanners jitter the stored b-value around the nominal shell
// (e.g. 990, 1000, 1005 for a b=1000 acquisition).
const DefaultShellEpsilon = 80.0

// Shell is one diffusion-weighting shell: the volumes whose b-values cluster
// around a common nominal value.
type Shell struct {
	// B is the mean b-value of the member volumes.
	B float64

	// Indices are the axis-3 volume indices belonging to this shell, in
	// acquisition order.
	Indices []int
}

// Shells clusters the table's b-values into shells. Two volumes share a shell
// when their b-values differ by no more than epsilon from the running shell
// mean. Shells are returned in ascending b-value order, so an unweighted
// (b=0) shell, if present, comes first. Epsilon values at or below zero fall
// back to DefaultShellEpsilon.
func (t Table) Shells(epsilon float64) ([]Shell, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("cannot derive shells from an empty gradient table")
	}

	if epsilon <= 0 {
		epsilon = DefaultShellEpsilon
	}

	order := make([]int, len(t))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return t[order[i]].B < t[order[j]].B
	})

	shells := make([]Shell, 0)

	for _, volIdx := range order {
		b := t[volIdx].B

		if n := len(shells); n > 0 && b-shells[n-1].B <= epsilon {
			shell := &shells[n-1]

			// Fold this volume into the running mean for the shell
			count := float64(len(shell.Indices))
			shell.B = (shell.B*count + b) / (count + 1)
			shell.Indices = append(shell.Indices, volIdx)

			continue
		}

		shells = append(shells, Shell{B: b, Indices: []int{volIdx}})
	}

	// Restore acquisition order within each shell
	for i := range shells {
		sort.Ints(shells[i].Indices)
	}

	return shells, nil
}
