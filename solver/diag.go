package solver

import (
	"gonum.org/v1/gonum/floats"
)

// Record is one diagnostic sample of a run.
type Record struct {
	Step      int
	Time      float64
	Energy    float64
	Enstrophy float64
}

// Diagnose computes the kinetic energy and the enstrophy-like |k|²-weighted
// energy of the current field, summed over every worker.
//
// Only the kz >= 0 half of the spectrum is stored, so modes with 0 < kz < N/2
// stand in for their conjugates as well and are counted twice. For fields with
// energy on the kz = 0 or kz = N/2 planes this differs from a plain sum over
// the stored half spectrum.
func (in *Integrator) Diagnose() Record {
	s, wn := in.state, in.wn
	u, v, w := s.Vel[0], s.Vel[1], s.Vel[2]

	sums := in.pool.SumN(s.modes, 2, func(lo, hi int, acc []float64) {
		for l := lo; l < hi; l++ {
			e := wn.Weight[l] * (sqr(u[l]) + sqr(v[l]) + sqr(w[l]))
			acc[0] += e
			acc[1] += e * wn.KK[l]
		}
	})

	norm := in.g.InvN3() * in.g.InvN3() / 2
	return Record{
		Step:      in.step,
		Time:      in.t,
		Energy:    in.tr.Sum(sums[0]) * norm,
		Enstrophy: in.tr.Sum(sums[1]) * norm,
	}
}

func sqr(z complex128) float64 { return real(z)*real(z) + imag(z)*imag(z) }

// PhysicalEnergy returns ½<|u|²> computed directly from the physical
// velocity field, summed over every worker.
func (in *Integrator) PhysicalEnergy() float64 {
	in.materialize()
	s := in.state

	sum := 0.0
	for _, xs := range s.Phys {
		sum += floats.Dot(xs, xs)
	}
	return in.tr.Sum(sum) / float64(in.g.N3) / 2
}
