package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/phil-mansfield/godns/fft"
	"github.com/phil-mansfield/godns/geom"
	"github.com/phil-mansfield/godns/loop"
)

// DiagInterval is the number of steps between diagnostic records.
const DiagInterval = 10

var (
	// ErrNumericalFault is returned once the velocity field stops being
	// finite.
	ErrNumericalFault = errors.New("numerical fault")

	rkA = [4]float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6}
	rkB = [3]float64{0.5, 0.5, 1}
)

// Params are the physical and temporal parameters of a run.
type Params struct {
	Viscosity float64
	TimeStep  float64
	EndTime   float64
}

// Valid returns an error describing the first invalid parameter, if any.
func (p *Params) Valid() error {
	switch {
	case math.IsNaN(p.Viscosity) || math.IsInf(p.Viscosity, 0):
		return fmt.Errorf("viscosity %g is not finite", p.Viscosity)
	case !(p.TimeStep > 0) || math.IsInf(p.TimeStep, 0):
		return fmt.Errorf("time step %g must be positive and finite", p.TimeStep)
	case p.EndTime == 0 || math.IsNaN(p.EndTime):
		return fmt.Errorf("end time %g must be nonzero", p.EndTime)
	}
	return nil
}

// Integrator advances a spectral velocity field in time. It only sees the
// part of the field its Transform's Layout assigns to it.
type Integrator struct {
	tr     fft.Transform
	g      *geom.Grid
	wn     *geom.Wavenumbers
	pool   *loop.Pool
	params Params
	state  *State
	log    logrus.FieldLogger

	step int
	t    float64
}

// New creates an Integrator which transforms with tr and runs its element-wise
// loops on pool. The velocity field starts at zero; call Load to set it.
func New(
	tr fft.Transform, pool *loop.Pool, params Params, log logrus.FieldLogger,
) (*Integrator, error) {
	if err := params.Valid(); err != nil {
		return nil, err
	}

	g := tr.Grid()
	lay := tr.Layout()
	in := &Integrator{
		tr:     tr,
		g:      g,
		wn:     geom.NewWavenumbers(g, lay.Spectral, pool),
		pool:   pool,
		params: params,
		state:  NewState(g, lay),
		log:    log,
	}

	log.WithFields(logrus.Fields{
		"n":        g.N,
		"modes":    in.state.modes,
		"retained": in.wn.Retained(),
		"kmax":     in.wn.KMax,
	}).Debug("Integrator ready.")

	return in, nil
}

// Load sets the velocity field from the local physical points of u, v and w.
// The step counter and time are reset.
func (in *Integrator) Load(u, v, w []float64) error {
	s := in.state
	for c, xs := range [3][]float64{u, v, w} {
		if len(xs) != s.points {
			return fmt.Errorf(
				"velocity component %d has %d points, expected %d",
				c, len(xs), s.points,
			)
		}
	}

	for c, xs := range [3][]float64{u, v, w} {
		copy(s.Phys[c], xs)
		in.tr.Forward(s.Vel[c], xs)
	}
	s.physValid = true
	in.step, in.t = 0, 0

	in.log.WithField("energy", in.PhysicalEnergy()).Debug("Loaded velocity field.")
	return nil
}

// Step advances the field by one time step.
func (in *Integrator) Step() error {
	s := in.state
	for c := range s.Vel {
		copy(s.Base[c], s.Vel[c])
		copy(s.Acc[c], s.Vel[c])
	}

	for stage := 0; stage < 4; stage++ {
		in.materialize()
		in.nonlinear()
		in.dealias()
		in.project()

		if stage < 3 {
			in.combine(s.Vel, s.Base, rkB[stage])
			s.physValid = false
		}
		in.combine(s.Acc, s.Acc, rkA[stage])
	}

	for c := range s.Vel {
		copy(s.Vel[c], s.Acc[c])
	}
	s.physValid = false
	in.t += in.params.TimeStep
	in.step++

	if !in.finite() {
		return fmt.Errorf("step %d, t = %g: %w", in.step, in.t, ErrNumericalFault)
	}
	return nil
}

// combine sets dst = src + coeff * Inc for every component.
func (in *Integrator) combine(dst, src Spectral, coeff float64) {
	s := in.state
	c := complex(coeff, 0)
	in.pool.Map(s.modes, func(lo, hi int) {
		for dim := range dst {
			d, x, inc := dst[dim], src[dim], s.Inc[dim]
			for l := lo; l < hi; l++ {
				d[l] = x[l] + c*inc[l]
			}
		}
	})
}

// finite reports whether every rank's velocity field is finite.
func (in *Integrator) finite() bool {
	s := in.state
	ok := in.pool.All(s.modes, func(lo, hi int) bool {
		for _, xs := range s.Vel {
			for l := lo; l < hi; l++ {
				re, im := real(xs[l]), imag(xs[l])
				if math.IsNaN(re) || math.IsInf(re, 0) ||
					math.IsNaN(im) || math.IsInf(im, 0) {
					return false
				}
			}
		}
		return true
	})

	bad := 0.0
	if !ok {
		bad = 1
	}
	return in.tr.Sum(bad) == 0
}

// Run integrates until the time passes the end time. observe is called with a
// Record every DiagInterval steps and on the final iteration. An error from
// observe stops the run and is returned.
func (in *Integrator) Run(observe func(Record) error) error {
	for {
		done := in.t > in.params.EndTime
		if in.step%DiagInterval == 0 || done {
			if err := observe(in.Diagnose()); err != nil {
				return err
			}
		}
		if done {
			break
		}

		if err := in.Step(); err != nil {
			return err
		}
		in.log.WithFields(logrus.Fields{
			"step": in.step, "t": in.t,
		}).Debug("Finished step.")
	}
	return nil
}

// Snapshot returns the normalized physical U, V, W and pressure fields of the
// local points. The arrays are owned by the Integrator and are overwritten by
// the next call.
func (in *Integrator) Snapshot() [4][]float64 {
	s := in.state
	if s.dump[0] == nil {
		for i := range s.dump {
			s.dump[i] = make([]float64, s.points)
		}
	}

	norm := in.g.InvN3()
	for c, xs := range [4][]complex128{s.Vel[0], s.Vel[1], s.Vel[2], s.P} {
		out := s.dump[c]
		in.tr.Backward(out, xs)
		in.pool.Map(s.points, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				out[i] *= norm
			}
		})
	}
	return s.dump
}

// Divergence returns the largest |k·û| over the local modes, normalized by
// 1/N³ so that it is comparable to physical velocities.
func (in *Integrator) Divergence() float64 {
	s, wn := in.state, in.wn
	u, v, w := s.Vel[0], s.Vel[1], s.Vel[2]

	largest := 0.0
	for l := 0; l < s.modes; l++ {
		div := complex(wn.KX[l], 0)*u[l] +
			complex(wn.KY[l], 0)*v[l] +
			complex(wn.KZ[l], 0)*w[l]
		if d := math.Hypot(real(div), imag(div)); d > largest {
			largest = d
		}
	}
	return largest * in.g.InvN3()
}

func (in *Integrator) Grid() *geom.Grid               { return in.g }
func (in *Integrator) Wavenumbers() *geom.Wavenumbers { return in.wn }
func (in *Integrator) State() *State                  { return in.state }
func (in *Integrator) Params() Params                 { return in.params }
func (in *Integrator) StepCount() int                 { return in.step }
func (in *Integrator) Time() float64                  { return in.t }
