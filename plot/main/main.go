package main

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/phil-mansfield/table"
)

var colors = []string{
	"DarkSlateBlue", "DarkTurquoise", "DeepPink",
	"DarkOrange", "ForestGreen", "DimGray",
}

// history is the diagnostic output of one dns run.
type history struct {
	name                  string
	times, energy, enstro []float64
}

func readHistory(fname string) (*history, error) {
	cols, err := table.ReadTable(fname, []int{1, 2, 3}, nil)
	if err != nil {
		return nil, err
	}
	if len(cols[0]) == 0 {
		return nil, fmt.Errorf("'%s' contains no diagnostic lines", fname)
	}

	name := strings.TrimSuffix(path.Base(fname), path.Ext(fname))
	return &history{name, cols[0], cols[1], cols[2]}, nil
}

// taylorGreenDecay returns the energy of a Taylor-Green vortex which decays
// only through viscosity, E(t) = E(0) exp(-6 ν t).
func taylorGreenDecay(times []float64, e0, nu float64) []float64 {
	es := make([]float64, len(times))
	for i, t := range times {
		es[i] = e0 * math.Exp(-6*nu*t)
	}
	return es
}

func plotEnergy(hs []*history, nu float64, fname string) {
	plt.Figure(plt.FigSize(8, 8))
	for i, h := range hs {
		plt.Plot(h.times, h.energy, plt.LW(2), plt.C(colors[i%len(colors)]))
	}
	if nu > 0 {
		h := hs[0]
		ref := taylorGreenDecay(h.times, h.energy[0], nu)
		plt.Plot(h.times, ref, "--k", plt.LW(1))
	}

	plt.Title(fmt.Sprintf("Kinetic energy: %s", names(hs)))
	plt.XLabel(`$t$`, plt.FontSize(16))
	plt.YLabel(`$E$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}

func plotEnstrophy(hs []*history, fname string) {
	plt.Figure(plt.FigSize(8, 8))
	for i, h := range hs {
		plt.Plot(h.times, h.enstro, plt.LW(2), plt.C(colors[i%len(colors)]))
	}

	plt.Title(fmt.Sprintf("Enstrophy: %s", names(hs)))
	plt.XLabel(`$t$`, plt.FontSize(16))
	plt.YLabel(`$\Omega$`, plt.FontSize(16))
	plt.YScale("log")
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}

func names(hs []*history) string {
	tokens := make([]string, len(hs))
	for i := range hs {
		tokens[i] = hs[i].name
	}
	return strings.Join(tokens, ", ")
}

func main() {
	log := logrus.New()
	var (
		outDir string
		nu     float64
	)

	cmd := &cobra.Command{
		Use:   "plot [-o dir] [-n viscosity] diag.txt [diag.txt ...]",
		Short: "Plots the energy and enstrophy histories written by dns.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hs := make([]*history, len(args))
			for i, fname := range args {
				h, err := readHistory(fname)
				if err != nil {
					return err
				}
				hs[i] = h
				log.WithFields(logrus.Fields{
					"file": fname, "records": len(h.times),
				}).Info("Read diagnostics.")
			}

			plotEnergy(hs, nu, path.Join(outDir, "energy.png"))
			plotEnstrophy(hs, path.Join(outDir, "enstrophy.png"))
			plt.Execute()
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "plot directory")
	cmd.Flags().Float64VarP(
		&nu, "viscosity", "n", 0,
		"overlay the viscous Taylor-Green decay for this viscosity",
	)

	if err := cmd.Execute(); err != nil {
		log.Fatal(err.Error())
	}
}
