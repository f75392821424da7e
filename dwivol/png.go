package dwivol

import (
	"bufio"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/carbocation/pfx"
	"github.com/disintegration/imaging"
)

// SnapshotPNG writes the central axial slice of a volume as a grayscale PNG,
// windowed so the slice maximum maps to white. scale magnifies the slice by
// an integer factor with nearest-neighbor sampling, since review tools choke
// on a 64-pixel-wide image. Used for quick visual QC, not quantitation.
func SnapshotPNG(v *Volume, path string, scale int) error {
	z := v.Geom.Nz / 2

	maxIntensity := 0.0
	for y := 0; y < v.Geom.Ny; y++ {
		for x := 0; x < v.Geom.Nx; x++ {
			if val := v.At(x, y, z); val > maxIntensity {
				maxIntensity = val
			}
		}
	}

	img := image.NewGray16(image.Rect(0, 0, v.Geom.Nx, v.Geom.Ny))
	for y := 0; y < v.Geom.Ny; y++ {
		for x := 0; x < v.Geom.Nx; x++ {
			img.SetGray16(x, y, color.Gray16{Y: windowScale(v.At(x, y, z), maxIntensity)})
		}
	}

	var out image.Image = img
	if scale > 1 {
		out = imaging.Resize(img, v.Geom.Nx*scale, 0, imaging.NearestNeighbor)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	fw := bufio.NewWriter(f)
	if err := png.Encode(fw, out); err != nil {
		return pfx.Err(err)
	}

	return fw.Flush()
}

// windowScale maps an intensity onto the full uint16 range, clamping
// negatives to black.
func windowScale(intensity, maxIntensity float64) uint16 {
	if intensity < 0 || maxIntensity <= 0 {
		return 0
	}

	return uint16(float64(math.MaxUint16) * intensity / maxIntensity)
}
