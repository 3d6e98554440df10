/*Package dist runs the integrator on a slab-decomposed grid. Every rank is a
goroutine with its own transform, state and worker pool, and ranks only
communicate through the collectives of an fft.World.
*/
package dist

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/phil-mansfield/godns/fft"
	"github.com/phil-mansfield/godns/geom"
	"github.com/phil-mansfield/godns/loop"
	"github.com/phil-mansfield/godns/solver"
)

// errPeer is returned by ranks which stop because another rank failed.
var errPeer = errors.New("stopped by another rank")

// Config describes a distributed run.
type Config struct {
	N       int // grid side
	Ranks   int
	Threads int // worker goroutines per rank
	Params  solver.Params
}

// DefaultConfig is the configuration of the standard distributed run: a
// 32^3 Taylor-Green vortex on four ranks.
var DefaultConfig = Config{
	N:       32,
	Ranks:   4,
	Threads: 1,
	Params: solver.Params{
		Viscosity: 0.000625,
		TimeStep:  0.01,
		EndTime:   0.1,
	},
}

// Valid returns an error if the run described by con is impossible.
func (con *Config) Valid() error {
	if !geom.ValidGridSize(con.N) {
		return fmt.Errorf("grid side %d must be even and at least 2", con.N)
	} else if con.Threads < 0 {
		return fmt.Errorf("negative thread count %d", con.Threads)
	} else if err := fft.SlabDecomposable(con.N, con.Ranks); err != nil {
		return err
	}
	return con.Params.Valid()
}

// InitFunc returns the initial velocity of the local real-space points of
// slab.
type InitFunc func(g *geom.Grid, slab geom.Slab) (u, v, w []float64)

// TaylorGreen is the InitFunc for the Taylor-Green vortex
// u = sin x cos y cos z, v = -cos x sin y cos z, w = 0.
func TaylorGreen(g *geom.Grid, slab geom.Slab) (u, v, w []float64) {
	points := slab.Points(g)
	u = make([]float64, points)
	v = make([]float64, points)
	w = make([]float64, points)

	for p := 0; p < slab.Planes; p++ {
		x := g.X(p + slab.Offset)
		for j := 0; j < g.N; j++ {
			y := g.X(j)
			for k := 0; k < g.N; k++ {
				z := g.X(k)
				idx := (p*g.N+j)*g.N + k
				u[idx] = math.Sin(x) * math.Cos(y) * math.Cos(z)
				v[idx] = -math.Cos(x) * math.Sin(y) * math.Cos(z)
			}
		}
	}
	return u, v, w
}

// Run integrates the field given by init on con.Ranks ranks. report is called
// on rank 0 only, once per diagnostic record. If any rank fails, every rank
// stops at the next diagnostic or step and the first error is returned.
func Run(
	con Config, init InitFunc,
	report func(solver.Record) error, log logrus.FieldLogger,
) error {
	if err := con.Valid(); err != nil {
		return err
	}

	g := geom.NewGrid(con.N)
	world := fft.NewWorld(con.Ranks)
	log.WithFields(logrus.Fields{
		"n": con.N, "ranks": con.Ranks, "threads": con.Threads,
	}).Debug("Starting distributed run.")

	var group errgroup.Group
	for r := 0; r < con.Ranks; r++ {
		comm := world.Comm(r)
		group.Go(func() error {
			err := runRank(g, comm, con, init, report, log.WithField("rank", comm.Rank()))
			if errors.Is(err, errPeer) {
				return nil
			}
			return err
		})
	}
	return group.Wait()
}

func runRank(
	g *geom.Grid, comm *fft.Comm, con Config, init InitFunc,
	report func(solver.Record) error, log logrus.FieldLogger,
) error {
	pool := loop.NewPool(con.Threads)
	tr, err := fft.NewSlab(g, comm, pool)
	if err != nil {
		return err
	}
	in, err := solver.New(tr, pool, con.Params, log)
	if err != nil {
		return err
	}

	u, v, w := init(g, tr.Layout().Real)
	points := tr.Layout().Real.Points(g)
	if len(u) != points || len(v) != points || len(w) != points {
		err = fmt.Errorf(
			"rank %d: initial field has %d, %d, %d points, expected %d",
			comm.Rank(), len(u), len(v), len(w), points,
		)
	}
	if err := agree(tr, err); err != nil {
		return err
	}
	if err := in.Load(u, v, w); err != nil {
		return err
	}

	return in.Run(func(rec solver.Record) error {
		var err error
		if comm.Rank() == 0 {
			err = report(rec)
		}
		return agree(tr, err)
	})
}

// agree returns err if it is non-nil and errPeer if err is nil on this rank
// but not on some other one. It is a collective: every rank must call it.
func agree(tr fft.Transform, err error) error {
	failed := 0.0
	if err != nil {
		failed = 1
	}
	if tr.Sum(failed) == 0 {
		return nil
	} else if err == nil {
		return errPeer
	}
	return err
}
