package main

import (
	"fmt"
	stdio "io"
	"os"
	"runtime/pprof"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phil-mansfield/godns/fft"
	"github.com/phil-mansfield/godns/geom"
	"github.com/phil-mansfield/godns/io"
	"github.com/phil-mansfield/godns/loop"
	"github.com/phil-mansfield/godns/solver"
)

const usage = `Usage: dns [-v] [-d] -i <input.raw> -n <viscosity> -t <end time> -s <time step>

Options:
  -i <input.raw>    Input file
  -n <viscosity>    Viscosity
  -t <end time>     End time
  -s <time step>    Time step
  -v                Verbose output
  -d                Dump snapshots
  -o <dir>          Directory snapshots are written to (default ".")
  -p <threads>      Worker goroutines (default: number of CPUs)
  -c <run.cfg>      Read parameters from a [Run] config file; flags override it
  -e                Print an example config file and exit
  -h                Show this help message

Example:
  dns -i tgv.raw -n 0.01 -t 1.0 -s 0.001 -v
`

// FileGroup holds the files which must be closed once the run is over.
type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() error {
	if fg.log != nil {
		if err := fg.log.Close(); err != nil {
			return err
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		if err := fg.prof.Close(); err != nil {
			return err
		}
	}
	return nil
}

// setupFiles opens the log and profile files requested by con.
func setupFiles(con *io.RunConfig, log *logrus.Logger) (*FileGroup, error) {
	var err error
	fg := &FileGroup{}

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			return nil, err
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			fg.Close()
			return nil, err
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			fg.Close()
			return nil, err
		}
	}

	return fg, nil
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// run integrates the field in con.Input and writes one diagnostic line to out
// per diagnostic interval.
func run(con *io.RunConfig, out stdio.Writer, log *logrus.Logger) error {
	if err := con.Check(); err != nil {
		return err
	}
	n, vel, err := io.ReadVelocity(con.Input)
	if err != nil {
		return err
	}

	pool := loop.NewPool(con.Threads)
	log.WithFields(logrus.Fields{
		"n": n, "threads": pool.Workers(),
	}).Debug("Read initial velocity field.")

	g := geom.NewGrid(n)
	params := solver.Params{
		Viscosity: con.Viscosity,
		TimeStep:  con.TimeStep,
		EndTime:   con.EndTime,
	}
	in, err := solver.New(fft.NewSerial(g, pool), pool, params, log)
	if err != nil {
		return fmt.Errorf("%w: %v", io.ErrConfig, err)
	}
	if err := in.Load(vel[0], vel[1], vel[2]); err != nil {
		return err
	}

	var dumper *io.Dumper
	if con.Dump {
		if err := os.MkdirAll(con.Output, 0755); err != nil {
			return err
		}
		dumper = io.NewDumper(con.Output, g)
	}

	err = in.Run(func(rec solver.Record) error {
		if err := io.FormatRecord(out, rec); err != nil {
			return err
		}
		if dumper == nil {
			return nil
		}
		if err := dumper.Dump(rec, in.Snapshot()); err != nil {
			return fmt.Errorf("dump at step %d: %w", rec.Step, err)
		}
		log.WithField("step", rec.Step).Debug("Wrote snapshot.")
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"steps": in.StepCount(), "t": in.Time(),
	}).Debug("Run finished.")
	return nil
}

// mergeConfig fills every value of con which was not set on the command line
// from file.
func mergeConfig(cmd *cobra.Command, con, file *io.RunConfig) {
	set := cmd.Flags().Changed
	if !set("input") {
		con.Input = file.Input
	}
	if !set("output") {
		con.Output = file.Output
	}
	if !set("viscosity") {
		con.Viscosity = file.Viscosity
	}
	if !set("end-time") {
		con.EndTime = file.EndTime
	}
	if !set("time-step") {
		con.TimeStep = file.TimeStep
	}
	if !set("threads") {
		con.Threads = file.Threads
	}
	if !set("verbose") {
		con.Verbose = file.Verbose
	}
	if !set("dump") {
		con.Dump = file.Dump
	}
	con.LogFile, con.ProfileFile = file.LogFile, file.ProfileFile
}

func newCommand(out stdio.Writer) *cobra.Command {
	con := &io.DefaultRunWrapper().Run
	var configFile string
	var example bool

	cmd := &cobra.Command{
		Use:           "dns",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if example {
				fmt.Fprintln(out, io.ExampleRunFile)
				return nil
			}

			if configFile != "" {
				file := io.DefaultRunWrapper()
				if err := io.ReadRunConfig(configFile, file); err != nil {
					return err
				}
				mergeConfig(cmd, con, &file.Run)
			}

			log := newLogger(con.Verbose)
			fg, err := setupFiles(con, log)
			if err != nil {
				return err
			}
			runErr := run(con, out, log)
			if err := fg.Close(); err != nil && runErr == nil {
				return err
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&con.Input, "input", "i", con.Input, "input file")
	flags.Float64VarP(&con.Viscosity, "viscosity", "n", con.Viscosity, "viscosity")
	flags.Float64VarP(&con.EndTime, "end-time", "t", con.EndTime, "end time")
	flags.Float64VarP(&con.TimeStep, "time-step", "s", con.TimeStep, "time step")
	flags.BoolVarP(&con.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&con.Dump, "dump", "d", false, "dump snapshots")
	flags.StringVarP(&con.Output, "output", "o", con.Output, "snapshot directory")
	flags.IntVarP(&con.Threads, "threads", "p", 0, "worker goroutines")
	flags.StringVarP(&configFile, "config", "c", "", "[Run] config file")
	flags.BoolVarP(&example, "example-config", "e", false, "print an example config file")
	flags.BoolP("help", "h", false, "show this help message")

	cmd.SetHelpFunc(func(*cobra.Command, []string) {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	})
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", io.ErrConfig, err)
	})

	return cmd
}

func main() {
	if err := newCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dns: error: %v\n", err)
		os.Exit(1)
	}
}
