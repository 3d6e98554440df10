package fft

import (
	"fmt"

	"github.com/phil-mansfield/godns/geom"
	"github.com/phil-mansfield/godns/loop"
)

// Slab is one rank's part of a distributed Transform. In real space the rank
// owns N/P consecutive x planes. In spectral space it owns N/P consecutive ky
// planes, stored transposed as (jLocal*N + i)*NF + k.
//
// A forward transform does a 2D real-to-complex transform of every local x
// plane, exchanges blocks with every other rank so that each rank holds
// complete x lines, and finishes with complex transforms along x. Backward
// runs the same steps in reverse.
type Slab struct {
	g      *geom.Grid
	comm   *Comm
	pool   *loop.Pool
	ps     []plans
	planes int
	layout Layout

	scratch    *ScratchPool
	send, recv [][]complex128
}

var _ Transform = &Slab{}

// SlabDecomposable returns an error if a grid of side n cannot be split into
// slabs for the given number of ranks.
func SlabDecomposable(n, ranks int) error {
	if ranks < 1 {
		return fmt.Errorf("need at least one rank, got %d", ranks)
	} else if n%ranks != 0 {
		return fmt.Errorf(
			"grid side %d is not divisible by the rank count %d", n, ranks,
		)
	}
	return nil
}

// NewSlab creates the Slab transform for the rank behind comm. Local loops run
// on pool.
func NewSlab(g *geom.Grid, comm *Comm, pool *loop.Pool) (*Slab, error) {
	if err := SlabDecomposable(g.N, comm.Size()); err != nil {
		return nil, err
	}

	planes := g.N / comm.Size()
	offset := planes * comm.Rank()
	s := &Slab{
		g:      g,
		comm:   comm,
		pool:   pool,
		ps:     newPlans(pool.Workers(), g.N),
		planes: planes,
		layout: Layout{
			Real:     geom.Slab{Planes: planes, Offset: offset},
			Spectral: geom.Slab{Planes: planes, Offset: offset, Transposed: true},
		},
		scratch: NewScratchPool(planes*g.N*g.NF, 3),
		send:    make([][]complex128, comm.Size()),
		recv:    make([][]complex128, comm.Size()),
	}

	block := planes * planes * g.NF
	for r := range s.send {
		s.send[r] = make([]complex128, block)
		s.recv[r] = make([]complex128, block)
	}
	return s, nil
}

func (s *Slab) Grid() *geom.Grid { return s.g }
func (s *Slab) Layout() Layout   { return s.layout }

func (s *Slab) Sum(x float64) float64 { return s.comm.AllSum(x) }

func (s *Slab) Forward(dst []complex128, src []float64) {
	n, nf, planes := s.g.N, s.g.NF, s.planes

	s.scratch.With(func(buf []complex128) {
		// [iLocal][j][k]
		rowsForward(s.pool, s.ps, buf, src, planes*n, n, nf)
		transformAxis(s.pool, s.ps, buf, middleAxis(planes, n, nf), false)

		s.transpose(dst, buf)

		// [jLocal][i][k]
		transformAxis(s.pool, s.ps, dst, middleAxis(planes, n, nf), false)
	})
}

func (s *Slab) Backward(dst []float64, src []complex128) {
	n, nf, planes := s.g.N, s.g.NF, s.planes

	s.scratch.With(func(buf []complex128) {
		s.scratch.With(func(work []complex128) {
			// [jLocal][i][k]
			copy(buf, src)
			transformAxis(s.pool, s.ps, buf, middleAxis(planes, n, nf), true)

			s.transpose(work, buf)

			// [iLocal][j][k]
			transformAxis(s.pool, s.ps, work, middleAxis(planes, n, nf), true)
			rowsBackward(s.pool, s.ps, dst, work, planes*n, n, nf)
		})
	})
}

// transpose swaps the two leading axes of a distributed [N][N][NF] array:
// src is this rank's [planes][N][NF] slab of the untransposed array and dst
// receives the [planes][N][NF] slab of the transposed one. The operation is
// its own inverse.
func (s *Slab) transpose(dst, src []complex128) {
	n, nf, planes := s.g.N, s.g.NF, s.planes

	// Block for rank r holds src[a][r*planes + b][k] in (a, b, k) order.
	for r, block := range s.send {
		idx := 0
		for a := 0; a < planes; a++ {
			for b := 0; b < planes; b++ {
				start := (a*n + r*planes + b) * nf
				copy(block[idx:idx+nf], src[start:start+nf])
				idx += nf
			}
		}
	}

	s.comm.AllToAll(s.send, s.recv)

	// The block from rank r holds (a, b) = (r's local plane, our local
	// plane), which lands at dst[b][r*planes + a].
	for r, block := range s.recv {
		idx := 0
		for a := 0; a < planes; a++ {
			for b := 0; b < planes; b++ {
				start := (b*n + r*planes + a) * nf
				copy(dst[start:start+nf], block[idx:idx+nf])
				idx += nf
			}
		}
	}
}
