package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/phil-mansfield/godns/geom"
	"github.com/phil-mansfield/godns/solver"
)

// SnapshotFields names the fields of a snapshot in the order they are
// written.
var SnapshotFields = [4]string{"U", "V", "W", "P"}

// FormatRecord writes one diagnostic line: step, time, energy and enstrophy.
func FormatRecord(wr io.Writer, rec solver.Record) error {
	_, err := fmt.Fprintf(
		wr, "% 10d % .16e % .16e % .16e\n",
		rec.Step, rec.Time, rec.Energy, rec.Enstrophy,
	)
	return err
}

// RawName returns the name of the raw snapshot file written at step.
func RawName(step int) string { return fmt.Sprintf("%08d.raw", step) }

// XDMFName returns the name of the idx-th XDMF2 description file.
func XDMFName(idx int) string { return fmt.Sprintf("a.%08d.xdmf2", idx) }

// Dumper writes snapshots to a directory, numbering the XDMF2 files in the
// order they are written.
type Dumper struct {
	dir   string
	g     *geom.Grid
	count int
}

func NewDumper(dir string, g *geom.Grid) *Dumper {
	return &Dumper{dir: dir, g: g}
}

// Count returns the number of snapshots written so far.
func (d *Dumper) Count() int { return d.count }

// Dump writes the physical fields of rec's step to a raw file and describes
// it with an XDMF2 file.
func (d *Dumper) Dump(rec solver.Record, fields [4][]float64) error {
	raw := RawName(rec.Step)
	if err := WriteRaw(filepath.Join(d.dir, raw), d.g, fields); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(d.dir, XDMFName(d.count)))
	if err != nil {
		return err
	}
	if err := WriteXDMF(f, d.g, rec.Time, raw); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	d.count++
	return nil
}

// WriteRaw concatenates the fields into a file as little-endian float64
// values.
func WriteRaw(path string, g *geom.Grid, fields [4][]float64) error {
	for i, xs := range fields {
		if len(xs) != g.N3 {
			return fmt.Errorf(
				"field %s has %d points, expected %d",
				SnapshotFields[i], len(xs), g.N3,
			)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	wr := bufio.NewWriter(f)
	for _, xs := range fields {
		if err := binary.Write(wr, end, xs); err != nil {
			f.Close()
			return err
		}
	}
	if err := wr.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type xdmfAttribute struct {
	Name string
	Seek int
}

type xdmfGrid struct {
	Time       float64
	N          int
	Dx         float64
	Raw        string
	Attributes []xdmfAttribute
}

var xdmfTemplate = template.Must(template.New("xdmf").Funcs(template.FuncMap{
	"sci":  func(x float64) string { return fmt.Sprintf("%.16e", x) },
	"time": func(x float64) string { return fmt.Sprintf("%+.16e", x) },
}).Parse(`<Xdmf
    Version="2">
  <Domain>
    <Grid>
      <Time
          Value="{{time .Time}}"/>
      <Topology
          TopologyType="3DCoRectMesh"
          Dimensions="{{.N}} {{.N}} {{.N}}"/>
      <Geometry
          GeometryType="ORIGIN_DXDYDZ">
        <DataItem
            Dimensions="3">
          0
          0
          0
        </DataItem>
        <DataItem
            Dimensions="3">
          {{sci .Dx}}
          {{sci .Dx}}
          {{sci .Dx}}
        </DataItem>
      </Geometry>
{{- range .Attributes}}
      <Attribute
          name="{{.Name}}">
        <DataItem
            Format="Binary"
            Seek="{{.Seek}}"
            Precision="8"
            Dimensions="{{$.N}} {{$.N}} {{$.N}}">
          {{$.Raw}}
        </DataItem>
      </Attribute>
{{- end}}
    </Grid>
  </Domain>
</Xdmf>
`))

// WriteXDMF writes an XDMF2 description of a raw snapshot written by
// WriteRaw so that visualization tools can load it.
func WriteXDMF(wr io.Writer, g *geom.Grid, t float64, raw string) error {
	grid := xdmfGrid{Time: t, N: g.N, Dx: g.Dx, Raw: raw}
	for i, name := range SnapshotFields {
		grid.Attributes = append(grid.Attributes, xdmfAttribute{
			Name: name, Seek: i * g.N3 * 8,
		})
	}
	return xdmfTemplate.Execute(wr, grid)
}
