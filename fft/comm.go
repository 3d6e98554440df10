package fft

import (
	"fmt"
)

// World connects a fixed number of in-process ranks. Each rank talks to the
// others through its own Comm.
type World struct {
	size  int
	boxes [][]chan []complex128 // boxes[from][to]
	sums  [][]chan float64
}

// NewWorld creates a World with the given number of ranks.
func NewWorld(size int) *World {
	if size < 1 {
		panic(fmt.Sprintf("fft: World needs at least one rank, got %d", size))
	}

	w := &World{
		size:  size,
		boxes: make([][]chan []complex128, size),
		sums:  make([][]chan float64, size),
	}
	for from := 0; from < size; from++ {
		w.boxes[from] = make([]chan []complex128, size)
		w.sums[from] = make([]chan float64, size)
		for to := 0; to < size; to++ {
			w.boxes[from][to] = make(chan []complex128, 1)
			w.sums[from][to] = make(chan float64, 1)
		}
	}
	return w
}

// Size returns the number of ranks.
func (w *World) Size() int { return w.size }

// Comm returns the communicator for the given rank.
func (w *World) Comm(rank int) *Comm {
	if rank < 0 || rank >= w.size {
		panic(fmt.Sprintf("fft: rank %d outside World of size %d", rank, w.size))
	}
	return &Comm{w, rank}
}

// Comm is one rank's view of a World. Every collective must be called by
// all ranks in the same order.
type Comm struct {
	w    *World
	rank int
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.w.size }

// AllToAll sends send[r] to rank r and copies the block rank r sent to this
// rank into recv[r]. Blocks are copied when sent, so send may be reused as
// soon as AllToAll returns.
func (c *Comm) AllToAll(send, recv [][]complex128) {
	for to := 0; to < c.w.size; to++ {
		if to == c.rank {
			continue
		}
		msg := make([]complex128, len(send[to]))
		copy(msg, send[to])
		c.w.boxes[c.rank][to] <- msg
	}
	copy(recv[c.rank], send[c.rank])

	for from := 0; from < c.w.size; from++ {
		if from == c.rank {
			continue
		}
		msg := <-c.w.boxes[from][c.rank]
		if len(msg) != len(recv[from]) {
			panic(fmt.Sprintf(
				"fft: rank %d expected %d values from rank %d, got %d",
				c.rank, len(recv[from]), from, len(msg),
			))
		}
		copy(recv[from], msg)
	}
}

// AllSum returns the sum of x over all ranks. Terms are added in rank order,
// so every rank gets a bit-identical result.
func (c *Comm) AllSum(x float64) float64 {
	for to := 0; to < c.w.size; to++ {
		if to != c.rank {
			c.w.sums[c.rank][to] <- x
		}
	}

	sum := 0.0
	for from := 0; from < c.w.size; from++ {
		if from == c.rank {
			sum += x
		} else {
			sum += <-c.w.sums[from][c.rank]
		}
	}
	return sum
}
