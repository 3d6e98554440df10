package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaylorGreenDecay(t *testing.T) {
	ts := []float64{0, 0.1, 1}
	es := taylorGreenDecay(ts, 0.125, 0.01)

	assert.Equal(t, 0.125, es[0])
	assert.InDelta(t, 0.125*math.Exp(-0.006), es[1], 1e-15)
	assert.InDelta(t, 0.125*math.Exp(-0.06), es[2], 1e-15)
	assert.Empty(t, taylorGreenDecay(nil, 1, 1))
}

func TestNames(t *testing.T) {
	hs := []*history{{name: "tgv32"}, {name: "tgv64"}}
	assert.Equal(t, "tgv32, tgv64", names(hs))
}
