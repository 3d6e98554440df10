package io

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/godns/geom"
	"github.com/phil-mansfield/godns/solver"
)

func writeFile(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestExampleRunFile(t *testing.T) {
	path := writeFile(t, "run.cfg", []byte(ExampleRunFile))
	wrap := DefaultRunWrapper()
	require.NoError(t, ReadRunConfig(path, wrap))

	con := &wrap.Run
	assert.Equal(t, "path/to/tgv.raw", con.Input)
	assert.Equal(t, ".", con.Output)
	assert.Equal(t, 0.000625, con.Viscosity)
	assert.Equal(t, 0.1, con.EndTime)
	assert.Equal(t, 0.01, con.TimeStep)
	assert.False(t, con.Dump)
	assert.NoError(t, con.Check())
}

func TestReadRunConfigError(t *testing.T) {
	path := writeFile(t, "bad.cfg", []byte("[Run]\nViscosity = fast\n"))
	err := ReadRunConfig(path, DefaultRunWrapper())
	assert.True(t, errors.Is(err, ErrConfig))

	err = ReadRunConfig(filepath.Join(t.TempDir(), "missing.cfg"), DefaultRunWrapper())
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestRunConfigCheck(t *testing.T) {
	valid := func() *RunConfig {
		con := &DefaultRunWrapper().Run
		con.Input = "in.raw"
		con.Viscosity = 0.01
		con.EndTime = 1
		con.TimeStep = 0.001
		return con
	}

	table := []struct {
		mod func(*RunConfig)
		ok  bool
	}{
		{func(con *RunConfig) {}, true},
		{func(con *RunConfig) { con.Viscosity = 0 }, true},
		{func(con *RunConfig) { con.EndTime = -1 }, true},
		{func(con *RunConfig) { con.Input = "" }, false},
		{func(con *RunConfig) { con.Viscosity = math.NaN() }, false},
		{func(con *RunConfig) { con.EndTime = 0 }, false},
		{func(con *RunConfig) { con.TimeStep = 0 }, false},
		{func(con *RunConfig) { con.TimeStep = math.NaN() }, false},
		{func(con *RunConfig) { con.Threads = -2 }, false},
		{func(con *RunConfig) { con.Dump, con.Output = true, "" }, false},
	}

	for i, test := range table {
		con := valid()
		test.mod(con)
		err := con.Check()
		assert.Equal(t, test.ok, err == nil, "%d) %v", i, err)
		if err != nil {
			assert.True(t, errors.Is(err, ErrConfig), "%d", i)
		}
	}

	assert.Error(t, DefaultRunWrapper().Run.Check())
}

func TestVelocityRoundTrip(t *testing.T) {
	n := 4
	n3 := n * n * n
	var vel [3][]float64
	for c := range vel {
		vel[c] = make([]float64, n3)
		for i := range vel[c] {
			vel[c][i] = float64(c*n3+i) * 0.25
		}
	}

	path := filepath.Join(t.TempDir(), "in.raw")
	require.NoError(t, WriteVelocity(path, vel[0], vel[1], vel[2]))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3*n3*8), info.Size())

	gotN, got, err := ReadVelocity(path)
	require.NoError(t, err)
	assert.Equal(t, n, gotN)
	assert.Equal(t, vel, got)

	assert.Error(t, WriteVelocity(path, vel[0], vel[1][:3], vel[2]))
}

func TestReadVelocityMalformed(t *testing.T) {
	table := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"partial value", 3*64*8 + 4},
		{"two components", 2 * 64 * 8},
		{"not a cube", 3 * 60 * 8},
		{"odd side", 3 * 27 * 8},
	}

	for _, test := range table {
		path := writeFile(t, "in.raw", make([]byte, test.size))
		_, _, err := ReadVelocity(path)
		assert.True(t, errors.Is(err, ErrConfig), "%s: %v", test.name, err)
	}

	_, _, err := ReadVelocity(filepath.Join(t.TempDir(), "missing.raw"))
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestVelocitySize(t *testing.T) {
	table := []struct {
		size, n int
	}{
		{3 * 8 * 8, 2},
		{3 * 64 * 8, 4},
		{3 * 32 * 32 * 32 * 8, 32},
		{3 * 1 * 8, -1},
		{3 * 125 * 8, -1},
	}

	for i, test := range table {
		n, err := velocitySize(test.size)
		if test.n < 0 {
			assert.Error(t, err, "%d", i)
		} else {
			assert.NoError(t, err, "%d", i)
			assert.Equal(t, test.n, n, "%d", i)
		}
	}
}

func TestFormatRecord(t *testing.T) {
	buf := &bytes.Buffer{}
	rec := solver.Record{Step: 10, Time: 0.1, Energy: 0.125, Enstrophy: 0.375}
	require.NoError(t, FormatRecord(buf, rec))

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, "        10 ", line[:11])

	fields := strings.Fields(line)
	require.Len(t, fields, 4)
	for i, want := range []float64{rec.Time, rec.Energy, rec.Enstrophy} {
		got, err := strconv.ParseFloat(fields[i+1], 64)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDumper(t *testing.T) {
	g := geom.NewGrid(4)
	var fields [4][]float64
	for i := range fields {
		fields[i] = make([]float64, g.N3)
		fields[i][0] = float64(i + 1)
	}

	dir := t.TempDir()
	d := NewDumper(dir, g)
	require.NoError(t, d.Dump(solver.Record{Step: 0}, fields))
	require.NoError(t, d.Dump(solver.Record{Step: 10, Time: 0.1}, fields))
	assert.Equal(t, 2, d.Count())

	raw, err := os.ReadFile(filepath.Join(dir, "00000010.raw"))
	require.NoError(t, err)
	assert.Len(t, raw, 4*g.N3*8)

	xdmf, err := os.ReadFile(filepath.Join(dir, "a.00000001.xdmf2"))
	require.NoError(t, err)
	text := string(xdmf)
	assert.Contains(t, text, `Value="+1.0000000000000001e-01"`)
	assert.Contains(t, text, `Dimensions="4 4 4"`)
	assert.Contains(t, text, "00000010.raw")
	assert.NotContains(t, text, "00000001.raw")
	for i, name := range SnapshotFields {
		assert.Contains(t, text, `name="`+name+`"`)
		assert.Contains(t, text, `Seek="`+strconv.Itoa(i*g.N3*8)+`"`)
	}
	assert.Equal(t, 4, strings.Count(text, "<Attribute"))

	fields[2] = fields[2][:3]
	assert.Error(t, d.Dump(solver.Record{Step: 20}, fields))
}
