/*Package fft is the gateway between physical and spectral representations of
fields on a geom.Grid.

Transforms are unnormalized in both directions: a Forward followed by a
Backward multiplies a field by N³, and it is up to the caller to apply the
1/N³ correction exactly once. Whether a Transform runs on one process's worker
pool or is spread over several ranks which exchange slabs is invisible to
callers, which only see the Layout of the data they own.
*/
package fft

import (
	"github.com/phil-mansfield/godns/geom"
)

// Layout describes the data owned by the caller of a Transform. Real arrays
// hold Real.Points() values and spectral arrays hold Spectral.Modes() values.
type Layout struct {
	Real, Spectral geom.Slab
}

// Transform is a real-to-complex 3D Fourier transform.
type Transform interface {
	// Grid returns the global grid being transformed.
	Grid() *geom.Grid
	// Layout returns the slabs owned by the caller.
	Layout() Layout

	// Forward transforms the physical field src into dst. src is not
	// modified.
	Forward(dst []complex128, src []float64)
	// Backward transforms the spectral field src into dst. src is not
	// modified: the transform works on a scratch buffer owned by the
	// Transform.
	Backward(dst []float64, src []complex128)

	// Sum returns the sum of x over every rank taking part in the
	// transform. Every rank receives the same value.
	Sum(x float64) float64
}

// ScratchPool hands out spectral work buffers of a fixed length.
type ScratchPool struct {
	size int
	free chan []complex128
}

// NewScratchPool creates a pool of buffers with the given length. At most
// capacity released buffers are kept around for reuse.
func NewScratchPool(size, capacity int) *ScratchPool {
	return &ScratchPool{size, make(chan []complex128, capacity)}
}

// Len returns the length of the buffers in the pool.
func (sp *ScratchPool) Len() int { return sp.size }

// Get checks a buffer out of the pool, allocating one if none is free. The
// contents of the buffer are undefined.
func (sp *ScratchPool) Get() []complex128 {
	select {
	case buf := <-sp.free:
		return buf
	default:
		return make([]complex128, sp.size)
	}
}

// Put returns a buffer to the pool.
func (sp *ScratchPool) Put(buf []complex128) {
	if len(buf) != sp.size {
		panic("fft: buffer returned to the wrong ScratchPool")
	}
	select {
	case sp.free <- buf:
	default:
	}
}

// With checks a buffer out for the duration of fn.
func (sp *ScratchPool) With(fn func(buf []complex128)) {
	buf := sp.Get()
	defer sp.Put(buf)
	fn(buf)
}
