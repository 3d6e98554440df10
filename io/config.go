package io

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/gcfg.v1"
)

// ErrConfig is wrapped by every error caused by bad run parameters or a bad
// input file.
var ErrConfig = errors.New("configuration error")

const (
	ExampleRunFile = `[Run]

#######################
# Required Parameters #
#######################

# Flat little-endian float64 file holding the u, v and w components of the
# initial velocity field one after another. Each component has N^3 values,
# stored with the z index varying fastest.
Input = path/to/tgv.raw

# Kinematic viscosity. Zero is allowed and gives an inviscid run.
Viscosity = 0.000625

# The run stops at the first step whose time is past EndTime.
EndTime = 0.1

# Must be positive. Stability is the user's problem: the viscous term is
# explicit.
TimeStep = 0.01

#######################
# Optional Parameters #
#######################

# Directory which snapshot files are written to when Dump is set. Default is
# the working directory.
# Output = path/to/output/dir

# Writes a raw snapshot and an XDMF2 description of it every diagnostic
# interval.
# Dump = true

# Prints progress information to stderr.
# Verbose = true

# Number of worker goroutines. Default is the number of CPUs.
# Threads = 8

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`
)

type SharedConfig struct {
	// Required
	Input string
	// Optional
	Output               string
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type RunConfig struct {
	SharedConfig

	// Required
	Viscosity, EndTime, TimeStep float64

	// Optional
	Dump, Verbose bool
	Threads       int
}

type RunWrapper struct {
	Run RunConfig
}

// DefaultRunWrapper returns a RunWrapper whose required parameters are all
// invalid until they are set.
func DefaultRunWrapper() *RunWrapper {
	con := RunConfig{}
	con.Output = "."
	con.Viscosity = math.NaN()
	con.TimeStep = math.NaN()
	return &RunWrapper{con}
}

// ReadRunConfig reads the [Run] section of fname into wrap. Values already in
// wrap are kept unless the file sets them.
func ReadRunConfig(fname string, wrap *RunWrapper) error {
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfig, fname, err)
	}
	return nil
}

func (con *RunConfig) ValidViscosity() bool {
	return !math.IsNaN(con.Viscosity) && !math.IsInf(con.Viscosity, 0)
}
func (con *RunConfig) ValidEndTime() bool {
	return con.EndTime != 0 && !math.IsNaN(con.EndTime)
}
func (con *RunConfig) ValidTimeStep() bool {
	return con.TimeStep > 0 && !math.IsInf(con.TimeStep, 0)
}
func (con *RunConfig) ValidThreads() bool {
	return con.Threads >= 0
}

// Check returns an ErrConfig naming the first missing or invalid value.
func (con *RunConfig) Check() error {
	switch {
	case !con.ValidInput():
		return fmt.Errorf("%w: 'Input' (-i) is not set", ErrConfig)
	case !con.ValidViscosity():
		return fmt.Errorf("%w: 'Viscosity' (-n) is not set or invalid", ErrConfig)
	case !con.ValidEndTime():
		return fmt.Errorf("%w: 'EndTime' (-t) is not set or invalid", ErrConfig)
	case !con.ValidTimeStep():
		return fmt.Errorf("%w: 'TimeStep' (-s) is not set or invalid", ErrConfig)
	case !con.ValidThreads():
		return fmt.Errorf("%w: 'Threads' (-p) must be non-negative", ErrConfig)
	case con.Dump && !con.ValidOutput():
		return fmt.Errorf("%w: 'Output' (-o) must be set to dump snapshots", ErrConfig)
	}
	return nil
}
