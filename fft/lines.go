package fft

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/phil-mansfield/godns/loop"
)

// plans is the per-worker set of 1D transforms and the line buffer used to
// gather strided data. gonum plans keep internal work space, so each worker
// needs its own.
type plans struct {
	real  *fourier.FFT
	cmplx *fourier.CmplxFFT
	line  []complex128
}

func newPlans(workers, n int) []plans {
	ps := make([]plans, workers)
	for i := range ps {
		ps[i].real = fourier.NewFFT(n)
		ps[i].cmplx = fourier.NewCmplxFFT(n)
		ps[i].line = make([]complex128, n)
	}
	return ps
}

// rowsForward runs a real-to-complex transform over each of the given number
// of contiguous rows of src, writing nf coefficients per row to dst.
func rowsForward(
	pool *loop.Pool, ps []plans, dst []complex128, src []float64,
	rows, n, nf int,
) {
	pool.Each(rows, func(id, lo, hi int) {
		p := &ps[id]
		for r := lo; r < hi; r++ {
			p.real.Coefficients(dst[r*nf:(r+1)*nf], src[r*n:(r+1)*n])
		}
	})
}

// rowsBackward is the inverse of rowsForward.
func rowsBackward(
	pool *loop.Pool, ps []plans, dst []float64, src []complex128,
	rows, n, nf int,
) {
	pool.Each(rows, func(id, lo, hi int) {
		p := &ps[id]
		for r := lo; r < hi; r++ {
			p.real.Sequence(dst[r*n:(r+1)*n], src[r*nf:(r+1)*nf])
		}
	})
}

// axis describes a batch of strided complex lines of length n within an
// array. Line t starts at start(t) and its elements are stride apart.
type axis struct {
	lines, n, stride int
	start            func(t int) int
}

// middleAxis returns the lines along the second axis of an array shaped
// [planes][n][nf].
func middleAxis(planes, n, nf int) axis {
	return axis{
		lines: planes * nf, n: n, stride: nf,
		start: func(t int) int { return (t/nf)*n*nf + t%nf },
	}
}

// leadingAxis returns the lines along the first axis of an array shaped
// [n][m][nf].
func leadingAxis(n, m, nf int) axis {
	return axis{
		lines: m * nf, n: n, stride: m * nf,
		start: func(t int) int { return t },
	}
}

// transformAxis runs a complex transform in place over every line of ax.
func transformAxis(
	pool *loop.Pool, ps []plans, a []complex128, ax axis, inverse bool,
) {
	pool.Each(ax.lines, func(id, lo, hi int) {
		p := &ps[id]
		line := p.line[:ax.n]
		for t := lo; t < hi; t++ {
			s := ax.start(t)
			for i := range line {
				line[i] = a[s+i*ax.stride]
			}
			if inverse {
				p.cmplx.Sequence(line, line)
			} else {
				p.cmplx.Coefficients(line, line)
			}
			for i := range line {
				a[s+i*ax.stride] = line[i]
			}
		}
	})
}
