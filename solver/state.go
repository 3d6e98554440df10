/*Package solver integrates the incompressible Navier-Stokes equations on a
periodic cube with a dealiased Fourier pseudo-spectral method and a
four-stage explicit Runge-Kutta scheme.

The velocity field lives in spectral space. Physical-space copies are
materialized through an fft.Transform when the nonlinear term needs them and
are never the field of record. The same Integrator runs on a shared-memory
transform or on one rank of a distributed slab transform: everything it
touches is described by the transform's Layout.
*/
package solver

import (
	"github.com/phil-mansfield/godns/fft"
	"github.com/phil-mansfield/godns/geom"
)

// Spectral is a vector field in spectral space, one array per component.
type Spectral [3][]complex128

// Physical is a vector field in physical space, one array per component.
type Physical [3][]float64

func newSpectral(modes int) Spectral {
	return Spectral{
		make([]complex128, modes),
		make([]complex128, modes),
		make([]complex128, modes),
	}
}

func newPhysical(points int) Physical {
	return Physical{
		make([]float64, points),
		make([]float64, points),
		make([]float64, points),
	}
}

// State owns every array the integrator works on. Each slot has exactly one
// role and no two slots share memory.
type State struct {
	// Vel is the field of record between steps and the working (stage
	// evaluation) state during a step.
	Vel Spectral
	// Base is Vel at the start of the current step.
	Base Spectral
	// Acc accumulates the weighted stage increments.
	Acc Spectral
	// Inc is the current stage's increment: nonlinear term, then dealiased
	// and scaled by the time step, then projected with viscosity applied.
	Inc Spectral
	// Curl is the spectral vorticity of Vel.
	Curl Spectral
	// P is the pressure computed by the most recent projection.
	P []complex128

	// Phys is the normalized physical velocity. It is only meaningful when
	// physValid is set.
	Phys      Physical
	physValid bool
	// PhysCurl is the normalized physical vorticity.
	PhysCurl Physical
	// Lamb is the physical Lamb vector u x ω.
	Lamb Physical

	// dump holds the physical U, V, W, P written by snapshots. It is
	// allocated on first use.
	dump [4][]float64

	modes, points int
}

// NewState allocates a State for the data owned under lay.
func NewState(g *geom.Grid, lay fft.Layout) *State {
	modes, points := lay.Spectral.Modes(g), lay.Real.Points(g)
	return &State{
		Vel:  newSpectral(modes),
		Base: newSpectral(modes),
		Acc:  newSpectral(modes),
		Inc:  newSpectral(modes),
		Curl: newSpectral(modes),
		P:    make([]complex128, modes),

		Phys:     newPhysical(points),
		PhysCurl: newPhysical(points),
		Lamb:     newPhysical(points),

		modes:  modes,
		points: points,
	}
}

// Modes returns the number of locally owned spectral modes.
func (s *State) Modes() int { return s.modes }

// Points returns the number of locally owned physical points.
func (s *State) Points() int { return s.points }
