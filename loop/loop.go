/*Package loop runs element-wise work over a fixed index range on a fixed set of
worker goroutines.

Every array in the solver has a single owner per time step, so the loops
handed to a Pool never share mutable state across iterations. Each worker is
given one contiguous chunk of the index range. Folds are combined in worker
order, which makes every reduction deterministic for a fixed worker count.
*/
package loop

import (
	"runtime"
)

// Pool is a fixed-size group of workers.
type Pool struct {
	workers int
}

// NewPool returns a Pool with the given number of workers. A non-positive
// count means one worker per logical core.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers}
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int { return p.workers }

// Chunk returns the half-open range [lo, hi) of [0, n) which belongs to the
// worker with the given id.
func (p *Pool) Chunk(id, n int) (lo, hi int) {
	return n * id / p.workers, n * (id + 1) / p.workers
}

// Each calls fn once per worker with that worker's id and chunk of [0, n).
// Workers whose chunk is empty are not called. Each returns once every
// worker has finished.
func (p *Pool) Each(n int, fn func(id, lo, hi int)) {
	if p.workers == 1 {
		if n > 0 {
			fn(0, 0, n)
		}
		return
	}

	out := make(chan int, p.workers)
	for id := 0; id < p.workers-1; id++ {
		go p.chanEach(id, n, fn, out)
	}
	p.chanEach(p.workers-1, n, fn, out)

	for i := 0; i < p.workers; i++ {
		<-out
	}
}

// chanEach runs a single worker's chunk and reports the worker id to out.
func (p *Pool) chanEach(id, n int, fn func(id, lo, hi int), out chan<- int) {
	lo, hi := p.Chunk(id, n)
	if lo < hi {
		fn(id, lo, hi)
	}
	out <- id
}

// Map calls fn over contiguous chunks which together cover [0, n).
func (p *Pool) Map(n int, fn func(lo, hi int)) {
	p.Each(n, func(_, lo, hi int) { fn(lo, hi) })
}

// Sum folds the partial sums returned by fn over the chunks of [0, n).
func (p *Pool) Sum(n int, fn func(lo, hi int) float64) float64 {
	sums := p.SumN(n, 1, func(lo, hi int, acc []float64) {
		acc[0] = fn(lo, hi)
	})
	return sums[0]
}

// SumN is Sum for k simultaneous accumulators. fn receives a zeroed slice of
// length k which it fills with the partial sums of its chunk.
func (p *Pool) SumN(n, k int, fn func(lo, hi int, acc []float64)) []float64 {
	partial := make([]float64, p.workers*k)
	p.Each(n, func(id, lo, hi int) {
		fn(lo, hi, partial[id*k:(id+1)*k])
	})

	sums := make([]float64, k)
	for id := 0; id < p.workers; id++ {
		for j := 0; j < k; j++ {
			sums[j] += partial[id*k+j]
		}
	}
	return sums
}

// All reports whether fn holds for every chunk of [0, n).
func (p *Pool) All(n int, fn func(lo, hi int) bool) bool {
	ok := make([]bool, p.workers)
	for i := range ok {
		ok[i] = true
	}
	p.Each(n, func(id, lo, hi int) { ok[id] = fn(lo, hi) })

	for _, b := range ok {
		if !b {
			return false
		}
	}
	return true
}
