package solver

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/godns/fft"
	"github.com/phil-mansfield/godns/geom"
	"github.com/phil-mansfield/godns/loop"
)

func quietLog() logrus.FieldLogger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

// field evaluates fn at every grid point.
func field(g *geom.Grid, fn func(x, y, z float64) float64) []float64 {
	xs := make([]float64, g.N3)
	for idx := range xs {
		i, j, k := g.Coords(idx)
		xs[idx] = fn(g.X(i), g.X(j), g.X(k))
	}
	return xs
}

func taylorGreen(g *geom.Grid) (u, v, w []float64) {
	u = field(g, func(x, y, z float64) float64 {
		return math.Sin(x) * math.Cos(y) * math.Cos(z)
	})
	v = field(g, func(x, y, z float64) float64 {
		return -math.Cos(x) * math.Sin(y) * math.Cos(z)
	})
	return u, v, make([]float64, g.N3)
}

// abc is an Arnold-Beltrami-Childress flow. It is divergence-free and, unlike
// Taylor-Green, has energy along every axis.
func abc(g *geom.Grid) (u, v, w []float64) {
	a, b, c := 1.0, 0.7, 0.4
	u = field(g, func(x, y, z float64) float64 {
		return a*math.Sin(z) + c*math.Cos(2*y)
	})
	v = field(g, func(x, y, z float64) float64 {
		return b*math.Sin(x) + a*math.Cos(z)
	})
	w = field(g, func(x, y, z float64) float64 {
		return c*math.Sin(2*y) + b*math.Cos(x)
	})
	return u, v, w
}

func newSerial(t testing.TB, n, workers int, p Params) *Integrator {
	pool := loop.NewPool(workers)
	in, err := New(fft.NewSerial(geom.NewGrid(n), pool), pool, p, quietLog())
	require.NoError(t, err)
	return in
}

var regression = Params{Viscosity: 0.000625, TimeStep: 0.01, EndTime: 0.1}

func collect(t testing.TB, in *Integrator) []Record {
	var recs []Record
	require.NoError(t, in.Run(func(rec Record) error {
		recs = append(recs, rec)
		return nil
	}))
	return recs
}

func TestTaylorGreenDecay(t *testing.T) {
	in := newSerial(t, 32, 0, regression)
	g := in.Grid()
	require.NoError(t, in.Load(taylorGreen(g)))

	recs := collect(t, in)
	require.Len(t, recs, 3)

	assert.Equal(t, 0, recs[0].Step)
	assert.InDelta(t, 0.125, recs[0].Energy, 1e-14)
	assert.InDelta(t, 3*0.125, recs[0].Enstrophy, 1e-13)

	rec := recs[1]
	assert.Equal(t, 10, rec.Step)
	assert.InDelta(t, 0.1, rec.Time, 1e-12)
	want := 0.125 * math.Exp(-6*regression.Viscosity*rec.Time)
	assert.InEpsilon(t, want, rec.Energy, 1e-6)
	assert.InDelta(t, 0.12495311751674265, rec.Energy, 1e-12)

	// The step that crosses the end time still gets a record.
	assert.Equal(t, 11, recs[2].Step)
	assert.True(t, recs[2].Time > regression.EndTime)
	assert.True(t, recs[2].Energy < rec.Energy)
}

func TestIncompressible(t *testing.T) {
	p := Params{Viscosity: 0.01, TimeStep: 0.01, EndTime: 1}
	table := []struct {
		name  string
		field func(*geom.Grid) ([]float64, []float64, []float64)
	}{
		{"taylor-green", taylorGreen},
		{"abc", abc},
	}

	for _, test := range table {
		in := newSerial(t, 16, 2, p)
		require.NoError(t, in.Load(test.field(in.Grid())))
		for i := 0; i < 5; i++ {
			require.NoError(t, in.Step())
			assert.True(t, in.Divergence() < 1e-12,
				"%s: divergence %g after step %d", test.name, in.Divergence(), i+1)
		}
	}
}

func TestParseval(t *testing.T) {
	gen := rand.New(rand.NewSource(4))
	for _, n := range []int{4, 8, 10} {
		in := newSerial(t, n, 3, regression)
		g := in.Grid()
		var comps [3][]float64
		for c := range comps {
			comps[c] = field(g, func(x, y, z float64) float64 {
				return gen.NormFloat64()
			})
		}
		require.NoError(t, in.Load(comps[0], comps[1], comps[2]))

		assert.InEpsilon(t, in.PhysicalEnergy(), in.Diagnose().Energy, 1e-12, "n=%d", n)
	}
}

func TestDeterminism(t *testing.T) {
	run := func(workers int) []Record {
		in := newSerial(t, 16, workers, Params{0.005, 0.02, 0.3})
		require.NoError(t, in.Load(abc(in.Grid())))
		return collect(t, in)
	}

	a, b := run(3), run(3)
	assert.Equal(t, a, b)

	c := run(1)
	require.Equal(t, len(a), len(c))
	for i := range a {
		assert.Equal(t, a[i].Step, c[i].Step)
		assert.InEpsilon(t, a[i].Energy, c[i].Energy, 1e-12)
		assert.InEpsilon(t, a[i].Enstrophy, c[i].Enstrophy, 1e-12)
	}
}

func TestZeroModePressure(t *testing.T) {
	in := newSerial(t, 8, 2, Params{Viscosity: 0.1, TimeStep: 0.05, EndTime: 1})
	g := in.Grid()
	u, v, w := taylorGreen(g)
	for i := range u {
		u[i] += 0.3
		w[i] -= 0.2
	}
	require.NoError(t, in.Load(u, v, w))

	s := in.State()
	var mean [3]complex128
	for c := range mean {
		mean[c] = s.Vel[c][0]
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, in.Step())
		assert.Equal(t, complex128(0), s.P[0])
	}

	// Neither pressure nor viscosity act on the mean flow, and the Lamb
	// vector of a periodic divergence-free field has zero mean.
	scale := float64(g.N3)
	for c := range mean {
		assert.InDelta(t, real(mean[c])/scale, real(s.Vel[c][0])/scale, 1e-12)
		assert.InDelta(t, 0, imag(s.Vel[c][0])/scale, 1e-12)
	}
}

func TestCurl(t *testing.T) {
	// u = (0, 0, sin x) has vorticity (0, -cos x, 0).
	in := newSerial(t, 8, 2, regression)
	g := in.Grid()
	zero := make([]float64, g.N3)
	w := field(g, func(x, y, z float64) float64 { return math.Sin(x) })
	require.NoError(t, in.Load(zero, zero, w))

	in.curl()
	s := in.State()
	in.backward(s.PhysCurl, s.Curl)

	want := field(g, func(x, y, z float64) float64 { return -math.Cos(x) })
	for i := range want {
		require.InDelta(t, 0, s.PhysCurl[0][i], 1e-12)
		require.InDelta(t, want[i], s.PhysCurl[1][i], 1e-12)
		require.InDelta(t, 0, s.PhysCurl[2][i], 1e-12)
	}
}

func TestDealias(t *testing.T) {
	in := newSerial(t, 8, 1, Params{Viscosity: 0, TimeStep: 0.5, EndTime: 1})
	s, wn := in.State(), in.Wavenumbers()
	for c := range s.Inc {
		for l := range s.Inc[c] {
			s.Inc[c][l] = 1 + 1i
		}
	}
	in.dealias()

	for l := range s.Inc[0] {
		want := complex128(0)
		if wn.Dealias[l] {
			want = 0.5 + 0.5i
		}
		require.Equal(t, want, s.Inc[0][l], "mode %d", l)
	}
}

func TestSnapshot(t *testing.T) {
	in := newSerial(t, 8, 2, regression)
	g := in.Grid()
	u, v, w := taylorGreen(g)
	require.NoError(t, in.Load(u, v, w))

	snap := in.Snapshot()
	for i := range u {
		require.InDelta(t, u[i], snap[0][i], 1e-12)
		require.InDelta(t, v[i], snap[1][i], 1e-12)
		require.InDelta(t, w[i], snap[2][i], 1e-12)
	}

	require.NoError(t, in.Step())
	again := in.Snapshot()
	assert.Same(t, &snap[3][0], &again[3][0])
}

func TestNumericalFault(t *testing.T) {
	in := newSerial(t, 4, 1, regression)
	u, v, w := taylorGreen(in.Grid())
	u[5] = math.NaN()
	require.NoError(t, in.Load(u, v, w))

	err := in.Step()
	assert.True(t, errors.Is(err, ErrNumericalFault))

	err = in.Run(func(Record) error { return nil })
	assert.True(t, errors.Is(err, ErrNumericalFault))
}

func TestObserverError(t *testing.T) {
	in := newSerial(t, 4, 1, regression)
	require.NoError(t, in.Load(taylorGreen(in.Grid())))

	stop := errors.New("disk full")
	assert.Equal(t, stop, in.Run(func(Record) error { return stop }))
	assert.Equal(t, 0, in.StepCount())
}

func TestLoad(t *testing.T) {
	in := newSerial(t, 4, 1, regression)
	short := make([]float64, 10)
	full := make([]float64, 64)
	assert.Error(t, in.Load(full, short, full))
	assert.NoError(t, in.Load(full, full, full))
}

func TestParamsValid(t *testing.T) {
	table := []struct {
		p  Params
		ok bool
	}{
		{Params{0.001, 0.01, 1}, true},
		{Params{0, 0.01, -1}, true},
		{Params{math.NaN(), 0.01, 1}, false},
		{Params{math.Inf(1), 0.01, 1}, false},
		{Params{0.001, 0, 1}, false},
		{Params{0.001, -0.01, 1}, false},
		{Params{0.001, math.Inf(1), 1}, false},
		{Params{0.001, 0.01, 0}, false},
	}

	for i, test := range table {
		err := test.p.Valid()
		assert.Equal(t, test.ok, err == nil, "%d) %+v: %v", i, test.p, err)
	}
}

func BenchmarkStep32(b *testing.B) {
	in := newSerial(b, 32, 0, regression)
	require.NoError(b, in.Load(taylorGreen(in.Grid())))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := in.Step(); err != nil {
			b.Fatal(err)
		}
	}
}
