package geom

import (
	"math"
)

// Grid describes the periodic cube [0, 2π)³ sampled at N points per side,
// together with the real-to-complex spectral layout that goes with it.
//
// Real arrays are stored row-major, (i*N + j)*N + k. Spectral arrays keep only
// the non-redundant half of the last axis, so they are stored as
// (i*N + j)*NF + k with NF = N/2 + 1.
type Grid struct {
	N, NF   int // points per side, length of the truncated spectral axis
	N3, N3F int // real points, spectral modes

	Length float64 // Box width.
	Dx     float64 // Cell width.
}

// ValidGridSize returns true if n can be used as the side of a Grid.
func ValidGridSize(n int) bool {
	return n >= 2 && n%2 == 0
}

// NewGrid returns a new Grid instance.
func NewGrid(n int) *Grid {
	g := &Grid{}
	g.Init(n)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(n int) {
	g.N = n
	g.NF = n/2 + 1
	g.N3 = n * n * n
	g.N3F = n * n * g.NF

	g.Length = 2 * math.Pi
	g.Dx = g.Length / float64(n)
}

// Idx returns the real-space index corresponding to a set of coordinates.
func (g *Grid) Idx(i, j, k int) int {
	return (i*g.N+j)*g.N + k
}

// Coords returns the i, j, k coordinates of a point from its real-space index.
func (g *Grid) Coords(idx int) (i, j, k int) {
	k = idx % g.N
	j = (idx / g.N) % g.N
	i = idx / (g.N * g.N)
	return i, j, k
}

// ModeIdx returns the spectral index of a mode.
func (g *Grid) ModeIdx(i, j, k int) int {
	return (i*g.N+j)*g.NF + k
}

// ModeCoords returns the i, j, k coordinates of a mode from its spectral
// index.
func (g *Grid) ModeCoords(idx int) (i, j, k int) {
	k = idx % g.NF
	j = (idx / g.NF) % g.N
	i = idx / (g.N * g.NF)
	return i, j, k
}

// X returns the physical coordinate of grid point i along any axis.
func (g *Grid) X(i int) float64 { return float64(i) * g.Dx }

// InvN3 returns the normalization applied after an unnormalized round trip.
func (g *Grid) InvN3() float64 { return 1 / float64(g.N3) }

// Slab is the part of an array owned by one worker: Planes consecutive planes
// along the leading axis, starting at the global plane Offset. For spectral
// slabs Transposed indicates that the leading axis carries ky instead of kx
// (and the second axis carries kx).
type Slab struct {
	Planes, Offset int
	Transposed     bool
}

// FullSlab returns the slab which covers the entire grid.
func FullSlab(g *Grid) Slab {
	return Slab{Planes: g.N}
}

// Points returns the number of real-space points in the slab.
func (s Slab) Points(g *Grid) int { return s.Planes * g.N * g.N }

// Modes returns the number of spectral modes in the slab.
func (s Slab) Modes(g *Grid) int { return s.Planes * g.N * g.NF }

// Contains returns true if the global leading-axis plane p is in the slab.
func (s Slab) Contains(p int) bool {
	return p >= s.Offset && p < s.Offset+s.Planes
}
