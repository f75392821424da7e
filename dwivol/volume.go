// Package dwivol holds the in-memory volume types that the preprocessing
// pipelines pass between stages: a 3-D Volume, a 4-D Series of volumes, and
// the voxel Geometry they share. NIfTI-1 reading and writing lives here too,
// so a volume can always get back to disk in the same physical space it came
// from.
package dwivol

import (
	"fmt"

	"github.com/neuroprep/dwiprep/gradtab"
)

// Volume is a single 3-D image. Data is stored flat with x varying fastest,
// then y, then z, matching NIfTI-1 on-disk order.
type Volume struct {
	Geom Geometry
	Data []float64
}

// NewVolume allocates a zero-filled volume on the given grid.
func NewVolume(geom Geometry) *Volume {
	return &Volume{
		Geom: geom,
		Data: make([]float64, geom.NVox()),
	}
}

func (v *Volume) index(x, y, z int) int {
	return x + v.Geom.Nx*(y+v.Geom.Ny*z)
}

// At returns the voxel value at (x, y, z). No bounds checking beyond the
// slice's own.
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.index(x, y, z)]
}

// SetAt stores a voxel value at (x, y, z).
func (v *Volume) SetAt(x, y, z int, value float64) {
	v.Data[v.index(x, y, z)] = value
}

// Clone returns an independent copy of the volume.
func (v *Volume) Clone() *Volume {
	out := &Volume{
		Geom: v.Geom,
		Data: make([]float64, len(v.Data)),
	}
	copy(out.Data, v.Data)

	return out
}

// Binarize returns a copy in which every voxel strictly above threshold
// becomes 1 and every other voxel becomes 0. Masks read from disk pass
// through this so that interpolated or probabilistic masks behave as strict
// membership.
func (v *Volume) Binarize(threshold float64) *Volume {
	out := NewVolume(v.Geom)
	for i, val := range v.Data {
		if val > threshold {
			out.Data[i] = 1
		}
	}

	return out
}

// NonzeroCount returns the number of voxels with a nonzero value.
func (v *Volume) NonzeroCount() int {
	n := 0
	for _, val := range v.Data {
		if val != 0 {
			n++
		}
	}

	return n
}

// Series is a 4-D image: NVols volumes sharing one grid, concatenated along
// the 4th axis. Data is volume-major, so volume t occupies
// Data[t*NVox : (t+1)*NVox].
type Series struct {
	Geom  Geometry
	NVols int

	// NAxes is the axis count declared by the source header (dim[0]). A
	// Series loaded from a 3-D file carries NAxes == 3 with NVols == 1, so
	// callers that require a true 4-D input can tell the difference.
	NAxes int

	Data []float64

	// Grad is the attached diffusion gradient table, nil until a caller
	// attaches one. When present it is expected to hold one entry per
	// volume; pipelines validate this rather than assume it.
	Grad gradtab.Table
}

// NewSeries allocates a zero-filled series of nvols volumes.
func NewSeries(geom Geometry, nvols int) *Series {
	return &Series{
		Geom:  geom,
		NVols: nvols,
		NAxes: 4,
		Data:  make([]float64, geom.NVox()*nvols),
	}
}

// VolumeAt returns volume t of the series. The returned Volume shares backing
// storage with the series; callers that need an independent copy should Clone
// it.
func (s *Series) VolumeAt(t int) (*Volume, error) {
	if t < 0 || t >= s.NVols {
		return nil, fmt.Errorf("volume index %d out of range for a series of %d volumes", t, s.NVols)
	}

	nvox := s.Geom.NVox()

	return &Volume{
		Geom: s.Geom,
		Data: s.Data[t*nvox : (t+1)*nvox],
	}, nil
}
