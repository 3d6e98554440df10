/*Package io reads and writes the files used by godns: run configuration,
initial velocity fields, snapshots with their XDMF2 descriptions, and the
diagnostic table.
*/
package io

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/phil-mansfield/godns/geom"
)

var end = binary.LittleEndian

// ReadVelocity reads an initial velocity field. The file must contain three
// arrays of N^3 little-endian float64 values for some even N.
func ReadVelocity(path string) (n int, vel [3][]float64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, vel, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	n, err = velocitySize(len(data))
	if err != nil {
		return 0, vel, fmt.Errorf("%w: wrong file '%s': %v", ErrConfig, path, err)
	}

	n3 := n * n * n
	rd := bytes.NewReader(data)
	for c := range vel {
		vel[c] = make([]float64, n3)
		if err := binary.Read(rd, end, vel[c]); err != nil {
			return 0, [3][]float64{}, fmt.Errorf(
				"%w: fail to read '%s': %v", ErrConfig, path, err,
			)
		}
	}
	return n, vel, nil
}

// velocitySize returns the grid side of a velocity file with the given size
// in bytes.
func velocitySize(size int) (int, error) {
	if size == 0 || size%(3*8) != 0 {
		return 0, fmt.Errorf(
			"%d bytes is not three arrays of float64 values", size,
		)
	}

	n3 := size / (3 * 8)
	n := int(math.Round(math.Cbrt(float64(n3))))
	if n*n*n != n3 {
		return 0, fmt.Errorf("%d values per component is not a cube", n3)
	} else if !geom.ValidGridSize(n) {
		return 0, fmt.Errorf("grid side %d must be even and at least 2", n)
	}
	return n, nil
}

// WriteVelocity writes a velocity field in the format read by ReadVelocity.
func WriteVelocity(path string, u, v, w []float64) error {
	if len(u) != len(v) || len(u) != len(w) {
		return fmt.Errorf(
			"velocity components have lengths %d, %d, %d",
			len(u), len(v), len(w),
		)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, xs := range [3][]float64{u, v, w} {
		if err := binary.Write(f, end, xs); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
