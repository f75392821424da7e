// dwibiascorrect removes low-frequency intensity inhomogeneity from a DWI
// series. The field is estimated on the mean b=0 volume with either FSL fast
// or ANTs N4BiasFieldCorrection and divided out of every volume.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/neuroprep/dwiprep/biasfield"
	_ "github.com/neuroprep/dwiprep/buildinfo"
	"github.com/neuroprep/dwiprep/dwiconf"
	"github.com/neuroprep/dwiprep/dwivol"
	"github.com/neuroprep/dwiprep/exttool"
	"github.com/neuroprep/dwiprep/gradtab"
	"github.com/neuroprep/dwiprep/maskgen"
)

const qcScale = 4

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dwibiascorrect [options] input.nii[.gz] output.nii[.gz]")
		flag.PrintDefaults()
	}
}

func main() {
	var useFSL, useANTs bool
	var maskPath, biasPath string
	var gradPath, bvecsPath, bvalsPath string
	var bzero float64
	var maskTool string
	var fastBin, n4Bin, dwi2maskBin string
	var scratchDir, qcDir, confPath string
	var keepScratch, showHistogram bool
	var fastChannels, fastClasses, fastIters int
	var antsShrink, antsSpline, antsIters int
	var antsMesh, antsConv float64

	flag.BoolVar(&useFSL, "fsl", false, "Estimate the field with FSL fast on the masked reference. Exactly one of -fsl and -ants must be given.")
	flag.BoolVar(&useANTs, "ants", false, "Estimate the field with ANTs N4BiasFieldCorrection, treating the mask as a weight image. Exactly one of -fsl and -ants must be given.")
	flag.StringVar(&maskPath, "mask", "", "(Optional) Brain mask on the input grid. Without it, a mask is derived (see -masktool).")
	flag.StringVar(&biasPath, "bias", "", "(Optional) Also write the estimated bias field to this path.")
	flag.StringVar(&gradPath, "grad", "", "(Optional) Gradient table in the four-column x y z b format. Mutually exclusive with -fslbvecs/-fslbvals.")
	flag.StringVar(&bvecsPath, "fslbvecs", "", "(Optional) FSL bvecs file; requires -fslbvals.")
	flag.StringVar(&bvalsPath, "fslbvals", "", "(Optional) FSL bvals file; requires -fslbvecs.")
	flag.Float64Var(&bzero, "bzero", 0, "(Optional) Largest b-value still treated as b=0. 0 means the configured default.")
	flag.StringVar(&maskTool, "masktool", "inproc", "How to derive a mask when -mask is absent: inproc (built-in Otsu mask) or dwi2mask (MRtrix).")
	flag.StringVar(&fastBin, "fastbin", "", "(Optional) Path to the fast binary; overrides the configured one.")
	flag.StringVar(&n4Bin, "n4bin", "", "(Optional) Path to the N4BiasFieldCorrection binary; overrides the configured one.")
	flag.StringVar(&dwi2maskBin, "dwi2maskbin", "", "(Optional) Path to the dwi2mask binary; overrides the configured one.")
	flag.StringVar(&scratchDir, "scratch", "", "(Optional) Parent directory for the per-run scratch space handed to the external tools.")
	flag.BoolVar(&keepScratch, "keepscratch", false, "Keep the scratch directory with the intermediate images instead of removing it.")
	flag.BoolVar(&showHistogram, "histogram", false, "Print a histogram of the in-mask bias field values to stdout.")
	flag.StringVar(&qcDir, "qc", "", "(Optional) Directory for central-slice snapshots of the reference, mask, bias field, and first corrected volume.")
	flag.StringVar(&confPath, "conf", "", "(Optional) YAML defaults file. Defaults to "+dwiconf.DefaultPath+" when present.")
	flag.IntVar(&fastChannels, "fsl.channels", 0, "(Optional) fast: input channel count. 0 means the configured default.")
	flag.IntVar(&fastClasses, "fsl.classes", 0, "(Optional) fast: tissue class count. 0 means the configured default.")
	flag.IntVar(&fastIters, "fsl.iters", 0, "(Optional) fast: segmentation/bias-removal loop passes. 0 means the configured default.")
	flag.IntVar(&antsShrink, "ants.shrink", 0, "(Optional) N4: spatial shrink factor. 0 means the configured default.")
	flag.Float64Var(&antsMesh, "ants.mesh", 0, "(Optional) N4: initial mesh resolution in mm. 0 means the configured default.")
	flag.IntVar(&antsSpline, "ants.spline", 0, "(Optional) N4: b-spline order. 0 means the configured default.")
	flag.IntVar(&antsIters, "ants.iters", 0, "(Optional) N4: maximum iterations. 0 means the configured default.")
	flag.Float64Var(&antsConv, "ants.conv", 0, "(Optional) N4: convergence threshold. 0 means the configured default.")
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	input, output := flag.Arg(0), flag.Arg(1)

	cfg, err := dwiconf.Load(confPath)
	if err != nil {
		log.Fatalln(err)
	}

	opts := biasfield.Options{
		UseFast:        useFSL,
		UseN4:          useANTs,
		BZeroThreshold: cfg.Gradients.BZeroThreshold,
		Fast:           cfg.FastOptions(),
		N4:             cfg.N4Options(),
		ScratchDir:     cfg.Scratch.Dir,
		KeepScratch:    cfg.Scratch.Keep || keepScratch,
	}
	if bzero > 0 {
		opts.BZeroThreshold = bzero
	}
	if scratchDir != "" {
		opts.ScratchDir = scratchDir
	}
	if fastChannels > 0 {
		opts.Fast.Channels = fastChannels
	}
	if fastClasses > 0 {
		opts.Fast.Classes = fastClasses
	}
	if fastIters > 0 {
		opts.Fast.Iterations = fastIters
	}
	if antsShrink > 0 {
		opts.N4.ShrinkFactor = antsShrink
	}
	if antsMesh > 0 {
		opts.N4.MeshResolutionMM = antsMesh
	}
	if antsSpline > 0 {
		opts.N4.SplineOrder = antsSpline
	}
	if antsIters > 0 {
		opts.N4.MaxIterations = antsIters
	}
	if antsConv > 0 {
		opts.N4.ConvergenceThreshold = antsConv
	}

	collab := biasfield.Collaborators{
		Fast: exttool.FastTool{Command: override(fastBin, cfg.Tools.Fast)},
		N4:   exttool.N4Tool{Command: override(n4Bin, cfg.Tools.N4)},
	}
	switch maskTool {
	case "inproc":
		collab.MaskGen = maskgen.Generator{}
	case "dwi2mask":
		collab.MaskGen = exttool.MaskTool{Command: override(dwi2maskBin, cfg.Tools.Dwi2mask)}
	default:
		log.Fatalf("Unknown -masktool %q (choose inproc or dwi2mask)", maskTool)
	}

	series, err := dwivol.LoadSeries(input)
	if err != nil {
		log.Fatalln(err)
	}

	table, err := gradtab.LoadForImage(input, gradPath, bvecsPath, bvalsPath)
	if err != nil {
		log.Fatalln(err)
	}
	if table != nil {
		series.Grad = table
	}

	var mask *dwivol.Volume
	if maskPath != "" {
		if mask, err = dwivol.LoadVolume(maskPath); err != nil {
			log.Fatalln(err)
		}
	}

	res, err := biasfield.Run(series, mask, opts, collab)
	if err != nil {
		log.Fatalln("bias correction failed:", err)
	}

	if err := dwivol.SaveSeries(res.Corrected, output); err != nil {
		log.Fatalln(err)
	}
	log.Println("Wrote corrected series to", output)

	if biasPath != "" {
		if err := dwivol.SaveVolume(res.Bias, biasPath); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote bias field to", biasPath)
	}

	if showHistogram {
		if err := printBiasHistogram(res); err != nil {
			log.Fatalln(err)
		}
	}

	if qcDir != "" {
		if err := writeQC(qcDir, res); err != nil {
			log.Fatalln(err)
		}
	}
}

func override(flagValue, configured string) string {
	if flagValue != "" {
		return flagValue
	}

	return configured
}

// printBiasHistogram renders the distribution of the field where it was
// actually estimated. Outside the mask the field is neutral and would swamp
// the plot.
func printBiasHistogram(res *biasfield.Result) error {
	vals := make([]float64, 0, len(res.Bias.Data))
	for i, v := range res.Bias.Data {
		if res.Mask.Data[i] != 0 {
			vals = append(vals, v)
		}
	}

	fmt.Printf("Bias field over %d in-mask voxels (global scale %g):\n", len(vals), res.Scale)

	return histogram.Fprint(os.Stdout, histogram.Hist(20, vals), histogram.Linear(40))
}

// writeQC drops central-slice snapshots of the run's artifacts for quick
// visual review.
func writeQC(dir string, res *biasfield.Result) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	corrected, err := res.Corrected.VolumeAt(0)
	if err != nil {
		return err
	}

	for _, v := range []struct {
		name string
		vol  *dwivol.Volume
	}{
		{"reference.png", res.Reference},
		{"mask.png", res.Mask},
		{"bias.png", res.Bias},
		{"corrected_vol000.png", corrected},
	} {
		if err := dwivol.SnapshotPNG(v.vol, filepath.Join(dir, v.name), qcScale); err != nil {
			return err
		}
	}

	return nil
}
