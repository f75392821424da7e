// dicom2grad assembles a diffusion gradient table from a directory of DICOM
// files, one file per volume. It reads the standard b-value and gradient
// direction tags with their Siemens private fallbacks and orders the entries
// by InstanceNumber.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/neuroprep/dwiprep/buildinfo"
	"github.com/neuroprep/dwiprep/gradtab"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dicom2grad -dir dicomfolder -out table.b")
		flag.PrintDefaults()
	}
}

func main() {
	var dir, out string

	flag.StringVar(&dir, "dir", "", "Directory holding the DICOM files of one diffusion acquisition.")
	flag.StringVar(&out, "out", "", "Path for the resulting four-column gradient table.")
	flag.Parse()

	if dir == "" || out == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	table, err := buildTable(dir)
	if err != nil {
		log.Fatalln(err)
	}

	if err := table.Save(out); err != nil {
		log.Fatalln(err)
	}
	log.Printf("Wrote %d gradient entries to %s", len(table), out)

	shells, err := table.Shells(0)
	if err != nil {
		log.Fatalln(err)
	}
	for _, shell := range shells {
		fmt.Printf("b=%g\t%d volume(s)\n", shell.B, len(shell.Indices))
	}
}

func buildTable(dir string) (gradtab.Table, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	encodings := make([]*encoding, 0, len(files))
	for _, file := range files {
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
			continue
		}

		enc, err := readEncoding(filepath.Join(dir, file.Name()))
		if err != nil {
			log.Println("Ignoring and continuing:", err)
			continue
		}

		encodings = append(encodings, enc)
	}

	if len(encodings) == 0 {
		return nil, fmt.Errorf("no readable DICOM files with diffusion tags under %s", dir)
	}

	// Acquisition order comes from InstanceNumber, not from filenames.
	sort.SliceStable(encodings, func(i, j int) bool {
		return encodings[i].instance < encodings[j].instance
	})

	table := make(gradtab.Table, 0, len(encodings))
	for _, enc := range encodings {
		table = append(table, gradtab.Entry{X: enc.x, Y: enc.y, Z: enc.z, B: enc.b})
	}

	return table, nil
}
