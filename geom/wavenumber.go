package geom

import (
	"math"

	"github.com/phil-mansfield/godns/loop"
)

// Axis returns the integer wavenumbers of a full-range axis of length n in
// natural FFT ordering: 0, 1, ..., n/2-1, -n/2, ..., -1.
func Axis(n int) []float64 {
	ks := make([]float64, n)
	for i := 0; i < n/2; i++ {
		ks[i] = float64(i)
	}
	for i := -n / 2; i < 0; i++ {
		ks[i+n] = float64(i)
	}
	return ks
}

// HalfAxis returns the wavenumbers of the truncated axis: 0, 1, ..., n/2.
func HalfAxis(n int) []float64 {
	ks := make([]float64, n/2+1)
	for i := range ks {
		ks[i] = float64(i)
	}
	return ks
}

// KMax returns the 2/3-rule cutoff. Modes with any per-axis wavenumber
// magnitude at or above it are removed.
func KMax(n int) float64 {
	return 2.0 / 3.0 * float64(n/2+1)
}

// Wavenumbers holds per-mode wavenumber tables for the spectral modes owned by
// one worker. Everything is immutable after NewWavenumbers returns.
type Wavenumbers struct {
	Slab Slab

	Axis, Half []float64
	KMax       float64

	KX, KY, KZ []float64
	KK         []float64 // |k|^2
	Dealias    []bool

	// Weight is the number of modes of the full complex spectrum which a
	// stored mode stands for: 1 on the kz = 0 and kz = N/2 planes, 2
	// elsewhere.
	Weight []float64
}

// NewWavenumbers builds the wavenumber, |k|^2, weight, and dealias tables for
// the given slab of g.
func NewWavenumbers(g *Grid, slab Slab, pool *loop.Pool) *Wavenumbers {
	modes := slab.Modes(g)
	wn := &Wavenumbers{
		Slab: slab,
		Axis: Axis(g.N),
		Half: HalfAxis(g.N),
		KMax: KMax(g.N),

		KX:      make([]float64, modes),
		KY:      make([]float64, modes),
		KZ:      make([]float64, modes),
		KK:      make([]float64, modes),
		Dealias: make([]bool, modes),
		Weight:  make([]float64, modes),
	}

	pool.Map(modes, func(lo, hi int) {
		for l := lo; l < hi; l++ {
			p, q, k := g.ModeCoords(l)
			lead := wn.Axis[p+slab.Offset]
			second := wn.Axis[q]

			if slab.Transposed {
				wn.KX[l], wn.KY[l] = second, lead
			} else {
				wn.KX[l], wn.KY[l] = lead, second
			}
			wn.KZ[l] = wn.Half[k]

			kx, ky, kz := wn.KX[l], wn.KY[l], wn.KZ[l]
			wn.KK[l] = kx*kx + ky*ky + kz*kz
			wn.Dealias[l] = math.Abs(kx) < wn.KMax &&
				math.Abs(ky) < wn.KMax && math.Abs(kz) < wn.KMax

			if k == 0 || k == g.N/2 {
				wn.Weight[l] = 1
			} else {
				wn.Weight[l] = 2
			}
		}
	})

	return wn
}

// Len returns the number of modes in the tables.
func (wn *Wavenumbers) Len() int { return len(wn.KK) }

// Retained returns the number of modes which survive dealiasing.
func (wn *Wavenumbers) Retained() int {
	n := 0
	for _, ok := range wn.Dealias {
		if ok {
			n++
		}
	}
	return n
}
