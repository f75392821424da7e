package dwivol

import (
	"fmt"
)

// LoadSeries reads a NIfTI-1 file as a 4-D series. 3-D files load as a
// single-volume series with NAxes == 3, so callers that require a true 4-D
// input can reject them with a precise complaint rather than an index panic.
func LoadSeries(path string) (*Series, error) {
	hdr, err := readHeader(path)
	if err != nil {
		return nil, err
	}

	if hdr.Dim[0] > 4 {
		return nil, fmt.Errorf("%s has %d axes; at most 4 are supported", path, hdr.Dim[0])
	}

	img, err := safelyNiftiParse(path, true)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	dims := img.GetDims()
	nx, ny, nz, nt := dims[0], dims[1], dims[2], dims[3]
	if nt == 0 {
		nt = 1
	}

	geom := hdr.geometry()
	if geom.Nx != nx || geom.Ny != ny || geom.Nz != nz {
		return nil, fmt.Errorf("%s: decoded grid %dx%dx%d disagrees with its header %dx%dx%d", path, nx, ny, nz, geom.Nx, geom.Ny, geom.Nz)
	}

	out := NewSeries(geom, nt)
	out.NAxes = int(hdr.Dim[0])

	i := 0
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					out.Data[i] = float64(img.GetAt(x, y, z, t))
					i++
				}
			}
		}
	}

	return out, nil
}

// LoadVolume reads a NIfTI-1 file as a single 3-D volume. A 4-D file with a
// single volume along the 4th axis is accepted and squeezed; anything longer
// is rejected.
func LoadVolume(path string) (*Volume, error) {
	series, err := LoadSeries(path)
	if err != nil {
		return nil, err
	}

	if series.NVols != 1 {
		return nil, fmt.Errorf("%s holds %d volumes; expected a single 3-D volume", path, series.NVols)
	}

	return &Volume{Geom: series.Geom, Data: series.Data}, nil
}

// SaveVolume writes a 3-D volume as float32 NIfTI-1 (gzip when the path ends
// in .gz).
func SaveVolume(v *Volume, path string) error {
	return writeNifti(path, headerFor(v.Geom, 1, 3), v.Data)
}

// SaveSeries writes a 4-D series as float32 NIfTI-1 (gzip when the path ends
// in .gz).
func SaveSeries(s *Series, path string) error {
	return writeNifti(path, headerFor(s.Geom, s.NVols, s.NAxes), s.Data)
}
