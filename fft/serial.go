package fft

import (
	"github.com/phil-mansfield/godns/geom"
	"github.com/phil-mansfield/godns/loop"
)

// Serial is a shared-memory Transform over the whole grid. Batches of
// independent 1D transforms are spread over the workers of a loop.Pool.
type Serial struct {
	g       *geom.Grid
	pool    *loop.Pool
	ps      []plans
	scratch *ScratchPool
}

var _ Transform = &Serial{}

// NewSerial creates a Serial transform for g which runs on pool.
func NewSerial(g *geom.Grid, pool *loop.Pool) *Serial {
	return &Serial{
		g:       g,
		pool:    pool,
		ps:      newPlans(pool.Workers(), g.N),
		scratch: NewScratchPool(g.N3F, 2),
	}
}

func (s *Serial) Grid() *geom.Grid { return s.g }

func (s *Serial) Layout() Layout {
	slab := geom.FullSlab(s.g)
	return Layout{slab, slab}
}

func (s *Serial) Sum(x float64) float64 { return x }

// Forward transforms z rows with real FFTs and then runs complex FFTs along
// y and x.
func (s *Serial) Forward(dst []complex128, src []float64) {
	n, nf := s.g.N, s.g.NF
	rowsForward(s.pool, s.ps, dst, src, n*n, n, nf)
	transformAxis(s.pool, s.ps, dst, middleAxis(n, n, nf), false)
	transformAxis(s.pool, s.ps, dst, leadingAxis(n, n, nf), false)
}

func (s *Serial) Backward(dst []float64, src []complex128) {
	n, nf := s.g.N, s.g.NF
	s.scratch.With(func(buf []complex128) {
		copy(buf, src)
		transformAxis(s.pool, s.ps, buf, leadingAxis(n, n, nf), true)
		transformAxis(s.pool, s.ps, buf, middleAxis(n, n, nf), true)
		rowsBackward(s.pool, s.ps, dst, buf, n*n, n, nf)
	})
}
