// dwi2png converts a DWI series into per-slice PNGs for visual review,
// window-scaling each slice to its own maximum so faint diffusion-weighted
// volumes remain visible next to bright b=0 volumes. One metadata line per
// PNG goes to stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/neuroprep/dwiprep/buildinfo"
	"github.com/neuroprep/dwiprep/dwivol"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dwi2png -file input.nii[.gz] -out folder [-vol N]")
		flag.PrintDefaults()
	}
}

func main() {
	var filename, output, vol string

	flag.StringVar(&filename, "file", "", "Name of .nii or .nii.gz file to convert to PNGs.")
	flag.StringVar(&output, "out", "", "Name of folder where the pngs will be emitted. Filenames will be {orig_filename}.z{z depth}_t{volume}.png.")
	flag.StringVar(&vol, "vol", "all", "Axis-3 volume to export: an index, or all.")
	flag.Parse()

	if filename == "" || output == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	prefix := filepath.Base(filename)
	prefix = strings.TrimSuffix(prefix, ".nii.gz")
	prefix = strings.TrimSuffix(prefix, ".nii")

	if stat, err := os.Stat(output); err != nil || !stat.IsDir() {
		if err := os.MkdirAll(output, os.ModePerm); err != nil {
			log.Fatalln(err)
		}
	}

	series, err := dwivol.LoadSeries(filename)
	if err != nil {
		log.Fatalln(err)
	}

	onlyVol := -1
	if vol != "all" {
		if onlyVol, err = strconv.Atoi(vol); err != nil {
			log.Fatalf("-vol must be a volume index or all, not %q", vol)
		}
		if onlyVol < 0 || onlyVol >= series.NVols {
			log.Fatalf("-vol %d out of range for a series of %d volumes", onlyVol, series.NVols)
		}
	}

	if err := writePNGs(series, onlyVol, prefix, output); err != nil {
		log.Fatalln(err)
	}
}

func writePNGs(series *dwivol.Series, onlyVol int, prefix, output string) error {
	geom := series.Geom
	colImg := image.NewRGBA(image.Rect(0, 0, geom.Nx, geom.Ny))

	// March forward along the 4th axis
	for t := 0; t < series.NVols; t++ {
		if onlyVol >= 0 && t != onlyVol {
			continue
		}

		v, err := series.VolumeAt(t)
		if err != nil {
			return err
		}

		// And down the stack
		for z := 0; z < geom.Nz; z++ {
			maxIntensity := 0.0
			for y := 0; y < geom.Ny; y++ {
				for x := 0; x < geom.Nx; x++ {
					if intensity := v.At(x, y, z); intensity > maxIntensity {
						maxIntensity = intensity
					}
				}
			}

			for y := 0; y < geom.Ny; y++ {
				for x := 0; x < geom.Nx; x++ {
					grayCol := color.Gray16{Y: windowScale(v.At(x, y, z), maxIntensity)}
					colImg.Set(x, y, color.RGBA64Model.Convert(grayCol))
				}
			}

			name := fmt.Sprintf("%s.z%06d_t%06d", prefix, z, t)

			f, err := os.Create(filepath.Join(output, name+".png"))
			if err != nil {
				return err
			}
			fw := bufio.NewWriter(f)

			if err := png.Encode(fw, colImg); err != nil {
				f.Close()
				return err
			}

			// Emit metadata about each PNG
			fmt.Printf("%s\t%d\t%d\t%g\t%g\t%g\n", name, z, t, geom.Dx, geom.Dy, geom.Dz)

			fw.Flush()
			f.Close()
		}
	}

	return nil
}

// windowScale maps an intensity onto the 16-bit gray range, clamping
// negatives to black and saturating at the slice maximum.
func windowScale(intensity, maxIntensity float64) uint16 {
	if intensity < 0 || maxIntensity <= 0 {
		return 0
	}

	return uint16(float64(math.MaxUint16) * intensity / maxIntensity)
}
