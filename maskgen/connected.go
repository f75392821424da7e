package maskgen

// Following the guide at
// http://aishack.in/tutorials/connected-component-labelling/

import (
	"github.com/neuroprep/dwiprep/dwivol"
	"github.com/theodesp/unionfind"
)

// largestComponent keeps only the most populous 6-connected foreground
// region. Two passes: provisional labels with equivalences recorded where
// regions touch, then every voxel resolved to its root label and the
// biggest root kept.
func largestComponent(mask *dwivol.Volume) *dwivol.Volume {
	fore := mask.NonzeroCount()
	if fore == 0 {
		return mask.Clone()
	}

	geom := mask.Geom
	nx, ny := geom.Nx, geom.Ny
	labels := make([]uint32, len(mask.Data))
	uf := unionfind.NewThreadSafeUnionFind(fore + 1)

	var next uint32 = 1
	for z := 0; z < geom.Nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				i := (z*ny+y)*nx + x
				if mask.Data[i] == 0 {
					continue
				}

				// See if we already labeled an adjacent voxel along any
				// of the three axes behind us.
				var nbr [3]uint32
				n := 0
				if x > 0 && mask.Data[i-1] != 0 {
					nbr[n] = labels[i-1]
					n++
				}
				if y > 0 && mask.Data[i-nx] != 0 {
					nbr[n] = labels[i-nx]
					n++
				}
				if z > 0 && mask.Data[i-nx*ny] != 0 {
					nbr[n] = labels[i-nx*ny]
					n++
				}

				// If not, it gets its own label.
				if n == 0 {
					labels[i] = next
					next++
					continue
				}

				best := nbr[0]
				for k := 1; k < n; k++ {
					if nbr[k] < best {
						best = nbr[k]
					}
				}
				labels[i] = best

				// Differing neighbor labels meet here and need to be joined.
				for k := 0; k < n; k++ {
					if nbr[k] != best {
						uf.Union(int(best), int(nbr[k]))
					}
				}
			}
		}
	}

	// Reconcile the adjacent labels and count voxels per component.
	counts := make(map[int]int)
	for i, l := range labels {
		if l == 0 {
			continue
		}

		root := uf.Root(int(l))
		if root < 0 {
			root = int(l)
		}

		labels[i] = uint32(root)
		counts[root]++
	}

	bestRoot, bestCount := 0, 0
	for root, n := range counts {
		if n > bestCount || (n == bestCount && root < bestRoot) {
			bestRoot, bestCount = root, n
		}
	}

	out := dwivol.NewVolume(geom)
	for i, l := range labels {
		if int(l) == bestRoot {
			out.Data[i] = 1
		}
	}

	return out
}

// dilate grows the mask by one voxel along each axis.
func dilate(mask *dwivol.Volume) *dwivol.Volume {
	geom := mask.Geom
	out := mask.Clone()

	for z := 0; z < geom.Nz; z++ {
		for y := 0; y < geom.Ny; y++ {
			for x := 0; x < geom.Nx; x++ {
				if mask.At(x, y, z) != 0 {
					continue
				}

				switch {
				case x > 0 && mask.At(x-1, y, z) != 0,
					x < geom.Nx-1 && mask.At(x+1, y, z) != 0,
					y > 0 && mask.At(x, y-1, z) != 0,
					y < geom.Ny-1 && mask.At(x, y+1, z) != 0,
					z > 0 && mask.At(x, y, z-1) != 0,
					z < geom.Nz-1 && mask.At(x, y, z+1) != 0:
					out.SetAt(x, y, z, 1)
				}
			}
		}
	}

	return out
}
