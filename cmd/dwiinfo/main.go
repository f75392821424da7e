// dwiinfo prints the header geometry of a NIfTI image and, when a gradient
// scheme can be found, its diffusion shell structure.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	_ "github.com/neuroprep/dwiprep/buildinfo"
	"github.com/neuroprep/dwiprep/dwivol"
	"github.com/neuroprep/dwiprep/gradtab"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dwiinfo [options] input.nii[.gz]")
		flag.PrintDefaults()
	}
}

func main() {
	var gradPath, bvecsPath, bvalsPath string
	var shellEps float64

	flag.StringVar(&gradPath, "grad", "", "(Optional) Gradient table in the four-column x y z b format. Mutually exclusive with -fslbvecs/-fslbvals.")
	flag.StringVar(&bvecsPath, "fslbvecs", "", "(Optional) FSL bvecs file; requires -fslbvals.")
	flag.StringVar(&bvalsPath, "fslbvals", "", "(Optional) FSL bvals file; requires -fslbvecs.")
	flag.Float64Var(&shellEps, "shelleps", 0, "(Optional) b-value distance within which volumes join the same shell. 0 means the default.")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	input := flag.Arg(0)

	info, err := dwivol.LoadHeaderInfo(input)
	if err != nil {
		log.Fatalln(err)
	}
	printHeader(input, info)

	table, err := gradtab.LoadForImage(input, gradPath, bvecsPath, bvalsPath)
	if err != nil {
		log.Fatalln(err)
	}
	if table == nil {
		log.Println("no gradient scheme found; shell table omitted")
		return
	}

	if err := printShells(table, shellEps); err != nil {
		log.Fatalln(err)
	}
}

func printHeader(path string, info *dwivol.HeaderInfo) {
	fmt.Printf("file\t%s\n", path)
	fmt.Printf("axes\t%d\n", info.NAxes)

	dims := fmt.Sprintf("%d", info.Dim[0])
	for i := 1; i < info.NAxes; i++ {
		dims += fmt.Sprintf(" x %d", info.Dim[i])
	}
	fmt.Printf("dimensions\t%s\n", dims)

	fmt.Printf("voxel size (mm)\t%g x %g x %g\n", info.Pixdim[0], info.Pixdim[1], info.Pixdim[2])
	fmt.Printf("datatype\t%s\n", info.Datatype)
	fmt.Printf("intensity scaling\tslope %g, intercept %g\n", info.SclSlope, info.SclInter)
	fmt.Printf("qform/sform codes\t%d/%d\n", info.QForm, info.SForm)
	if info.Descrip != "" {
		fmt.Printf("description\t%s\n", info.Descrip)
	}
}

func printShells(table gradtab.Table, epsilon float64) error {
	shells, err := table.Shells(epsilon)
	if err != nil {
		return err
	}

	fmt.Printf("gradient entries\t%d\n", len(table))
	fmt.Println()
	fmt.Println(strings.Join([]string{"b_value", "volumes", "directions"}, "\t"))
	for _, shell := range shells {
		fmt.Printf("%.1f\t%d\t%d\n", shell.B, len(shell.Indices), uniqueDirections(table, shell))
	}

	return nil
}

// uniqueDirections counts distinct gradient directions within a shell.
// Components are rounded to 3 decimals first, so re-acquisitions of the same
// direction count once.
func uniqueDirections(table gradtab.Table, shell gradtab.Shell) int {
	seen := make(map[[3]float64]struct{})
	for _, i := range shell.Indices {
		e := table[i]
		seen[[3]float64{round3(e.X), round3(e.Y), round3(e.Z)}] = struct{}{}
	}

	return len(seen)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
