package dwivol

import "math"

// Spacing agreement is looser than orientation agreement: grid spacings are
// stored as float32 in NIfTI-1 and survive less mangling than the rotation
// matrices, which accumulate error through conversion chains.
const (
	spacingTolerance     = 1e-5
	orientationTolerance = 1e-4
)

// Geometry describes the voxel grid of a volume: its size, physical spacing,
// and orientation in scanner space, as stored in a NIfTI-1 header.
type Geometry struct {
	Nx, Ny, Nz int

	// Voxel spacing in mm.
	Dx, Dy, Dz float64

	// Orientation, carried through from the source header so outputs land in
	// the same physical space as inputs. QFac is the qform handedness flag
	// (pixdim[0]).
	QFormCode, SFormCode         int16
	QuaternB, QuaternC, QuaternD float64
	QOffsetX, QOffsetY, QOffsetZ float64
	QFac                         float64
	SRowX, SRowY, SRowZ          [4]float64
}

// NVox is the voxel count of a single 3-D volume on this grid.
func (g Geometry) NVox() int {
	return g.Nx * g.Ny * g.Nz
}

// SameShape reports whether two geometries agree on grid size alone.
func (g Geometry) SameShape(o Geometry) bool {
	return g.Nx == o.Nx && g.Ny == o.Ny && g.Nz == o.Nz
}

// SameGrid reports whether two geometries agree on grid size and voxel
// spacing.
func (g Geometry) SameGrid(o Geometry) bool {
	if !g.SameShape(o) {
		return false
	}

	return math.Abs(g.Dx-o.Dx) <= spacingTolerance &&
		math.Abs(g.Dy-o.Dy) <= spacingTolerance &&
		math.Abs(g.Dz-o.Dz) <= spacingTolerance
}

// SameOrientation reports whether two geometries agree on grid size, spacing,
// and the voxel-to-scanner transform, so that voxel (x,y,z) in one names the
// same physical point as voxel (x,y,z) in the other.
func (g Geometry) SameOrientation(o Geometry) bool {
	if !g.SameGrid(o) {
		return false
	}

	if g.SFormCode != o.SFormCode || g.QFormCode != o.QFormCode {
		return false
	}

	if g.SFormCode > 0 {
		for i := 0; i < 4; i++ {
			if math.Abs(g.SRowX[i]-o.SRowX[i]) > orientationTolerance ||
				math.Abs(g.SRowY[i]-o.SRowY[i]) > orientationTolerance ||
				math.Abs(g.SRowZ[i]-o.SRowZ[i]) > orientationTolerance {
				return false
			}
		}
	}

	if g.QFormCode > 0 {
		if math.Abs(g.QuaternB-o.QuaternB) > orientationTolerance ||
			math.Abs(g.QuaternC-o.QuaternC) > orientationTolerance ||
			math.Abs(g.QuaternD-o.QuaternD) > orientationTolerance ||
			math.Abs(g.QOffsetX-o.QOffsetX) > orientationTolerance ||
			math.Abs(g.QOffsetY-o.QOffsetY) > orientationTolerance ||
			math.Abs(g.QOffsetZ-o.QOffsetZ) > orientationTolerance {
			return false
		}
	}

	return true
}
