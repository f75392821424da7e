// Package dwiconf loads the optional defaults file shared by the command
// line tools: external tool locations, gradient thresholds, backend tuning,
// and scratch directory handling. A missing file simply means defaults.
package dwiconf

import (
	"fmt"
	"os"

	"github.com/neuroprep/dwiprep/biasfield"
	"github.com/neuroprep/dwiprep/gradtab"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the tools look when no explicit config is given.
const DefaultPath = "~/.dwiprep.yml"

// Config mirrors the YAML defaults file.
type Config struct {
	Tools struct {
		// Fast, N4, and Dwi2mask override the binaries; empty means the
		// conventional name on the PATH.
		Fast     string `yaml:"fast"`
		N4       string `yaml:"n4"`
		Dwi2mask string `yaml:"dwi2mask"`
	} `yaml:"tools"`

	Gradients struct {
		BZeroThreshold float64 `yaml:"bzeroThreshold"`
		ShellEpsilon   float64 `yaml:"shellEpsilon"`
	} `yaml:"gradients"`

	Fast struct {
		Channels   int `yaml:"channels"`
		Classes    int `yaml:"classes"`
		Iterations int `yaml:"iterations"`
		ImageType  int `yaml:"imageType"`
	} `yaml:"fast"`

	N4 struct {
		ShrinkFactor         int     `yaml:"shrinkFactor"`
		MeshResolutionMM     float64 `yaml:"meshResolutionMM"`
		SplineOrder          int     `yaml:"splineOrder"`
		MaxIterations        int     `yaml:"maxIterations"`
		ConvergenceThreshold float64 `yaml:"convergenceThreshold"`
	} `yaml:"n4"`

	Scratch struct {
		Dir  string `yaml:"dir"`
		Keep bool   `yaml:"keep"`
	} `yaml:"scratch"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Tools.Fast = "fast"
	cfg.Tools.N4 = "N4BiasFieldCorrection"
	cfg.Tools.Dwi2mask = "dwi2mask"

	cfg.Gradients.BZeroThreshold = gradtab.DefaultBZeroThreshold
	cfg.Gradients.ShellEpsilon = gradtab.DefaultShellEpsilon

	fast := biasfield.DefaultFastOptions()
	cfg.Fast.Channels = fast.Channels
	cfg.Fast.Classes = fast.Classes
	cfg.Fast.Iterations = fast.Iterations
	cfg.Fast.ImageType = fast.ImageType

	n4 := biasfield.DefaultN4Options()
	cfg.N4.ShrinkFactor = n4.ShrinkFactor
	cfg.N4.MeshResolutionMM = n4.MeshResolutionMM
	cfg.N4.SplineOrder = n4.SplineOrder
	cfg.N4.MaxIterations = n4.MaxIterations
	cfg.N4.ConvergenceThreshold = n4.ConvergenceThreshold

	return cfg
}

// Load reads the YAML file at path, with an empty path meaning DefaultPath.
// A file that does not exist is not an error; the defaults come back
// unchanged.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	path = ExpandHome(path)

	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(ExpandHome(path), data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// FastOptions maps the config onto the pipeline's fast backend tuning.
func (c *Config) FastOptions() biasfield.FastOptions {
	return biasfield.FastOptions{
		Channels:   c.Fast.Channels,
		Classes:    c.Fast.Classes,
		Iterations: c.Fast.Iterations,
		ImageType:  c.Fast.ImageType,
	}
}

// N4Options maps the config onto the pipeline's N4 backend tuning.
func (c *Config) N4Options() biasfield.N4Options {
	return biasfield.N4Options{
		ShrinkFactor:         c.N4.ShrinkFactor,
		MeshResolutionMM:     c.N4.MeshResolutionMM,
		SplineOrder:          c.N4.SplineOrder,
		MaxIterations:        c.N4.MaxIterations,
		ConvergenceThreshold: c.N4.ConvergenceThreshold,
	}
}
