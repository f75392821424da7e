// dwishellmath reduces a multi-shell DWI series to one volume per b-value
// shell, taking a statistic (mean, median, rms, ...) across each shell's
// volumes at every voxel.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/neuroprep/dwiprep/buildinfo"
	"github.com/neuroprep/dwiprep/dwiconf"
	"github.com/neuroprep/dwiprep/dwivol"
	"github.com/neuroprep/dwiprep/gradtab"
	"github.com/neuroprep/dwiprep/shellmath"
)

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dwishellmath [options] input.nii[.gz] statistic output.nii[.gz]")
		fmt.Fprintln(os.Stderr, "Statistics:", statisticNames())
		flag.PrintDefaults()
	}
}

func statisticNames() string {
	out := ""
	for i, s := range shellmath.All() {
		if i > 0 {
			out += ", "
		}
		out += string(s)
	}

	return out
}

func main() {
	var gradPath, bvecsPath, bvalsPath string
	var shellEps float64
	var reportPath, confPath string

	flag.StringVar(&gradPath, "grad", "", "(Optional) Gradient table in the four-column x y z b format. Mutually exclusive with -fslbvecs/-fslbvals.")
	flag.StringVar(&bvecsPath, "fslbvecs", "", "(Optional) FSL bvecs file; requires -fslbvals.")
	flag.StringVar(&bvalsPath, "fslbvals", "", "(Optional) FSL bvals file; requires -fslbvecs.")
	flag.Float64Var(&shellEps, "shelleps", 0, "(Optional) b-value distance within which volumes join the same shell. 0 means the configured default.")
	flag.StringVar(&reportPath, "report", "", "(Optional) Also write a per-shell CSV summary to this path.")
	flag.StringVar(&confPath, "conf", "", "(Optional) YAML defaults file. Defaults to "+dwiconf.DefaultPath+" when present.")
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}
	input, output := flag.Arg(0), flag.Arg(2)

	stat, err := shellmath.Parse(flag.Arg(1))
	if err != nil {
		log.Fatalln(err)
	}

	cfg, err := dwiconf.Load(confPath)
	if err != nil {
		log.Fatalln(err)
	}
	if shellEps <= 0 {
		shellEps = cfg.Gradients.ShellEpsilon
	}

	series, err := dwivol.LoadSeries(input)
	if err != nil {
		log.Fatalln(err)
	}

	table, err := gradtab.LoadForImage(input, gradPath, bvecsPath, bvalsPath)
	if err != nil {
		log.Fatalln(err)
	}
	if table == nil {
		log.Fatalln("No gradient scheme found. Give -grad or -fslbvecs/-fslbvals, or place a sidecar next to the image.")
	}
	series.Grad = table

	reduced, shells, err := shellmath.Compute(series, stat, shellEps)
	if err != nil {
		log.Fatalln(err)
	}

	for _, shell := range shells {
		log.Printf("shell b=%g: %s over %d volumes", shell.B, stat, len(shell.Indices))
	}

	if err := dwivol.SaveSeries(reduced, output); err != nil {
		log.Fatalln(err)
	}
	log.Printf("Wrote %d shell volume(s) to %s", reduced.NVols, output)

	if reportPath != "" {
		rows, err := shellmath.Report(reduced, shells)
		if err != nil {
			log.Fatalln(err)
		}
		if err := shellmath.WriteReport(rows, reportPath); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote per-shell report to", reportPath)
	}
}
