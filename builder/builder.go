// Package builder constructs meshes: structured quadrilateral grids and
// Delaunay-triangulated meshes over scattered points.
package builder

import (
	"fmt"

	"github.com/pradeep-pyro/triangle"

	"github.com/notargets/gompm/element"
	"github.com/notargets/gompm/mesh"
	"github.com/notargets/gompm/types"
)

// Rectangular fills m with an nx by ny grid of Quad4 cells of edge length h
// starting at origin, computes cell neighbours, and returns the mesh ready
// for particle seeding. Node and cell ids start at 0, row major.
func Rectangular(m *mesh.Mesh, origin [2]float64, nx, ny int, h float64) error {
	if m.Dim() != 2 {
		return fmt.Errorf("builder: rectangular grid needs a 2D mesh, have %dD", m.Dim())
	}
	if nx < 1 || ny < 1 || h <= 0 {
		return fmt.Errorf("builder: invalid grid %dx%d with spacing %g", nx, ny, h)
	}

	coords := make([][]float64, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			coords = append(coords, []float64{
				origin[0] + float64(i)*h,
				origin[1] + float64(j)*h,
			})
		}
	}
	if err := m.CreateNodes(0, coords, true); err != nil {
		return err
	}

	elem, err := element.New("ED2Q4")
	if err != nil {
		return err
	}
	nid := func(i, j int) types.Index { return types.Index(j*(nx+1) + i) }
	connectivity := make([][]types.Index, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			connectivity = append(connectivity, []types.Index{
				nid(i, j), nid(i+1, j), nid(i+1, j+1), nid(i, j+1),
			})
		}
	}
	if err = m.CreateCells(0, elem, connectivity, true); err != nil {
		return err
	}
	m.ComputeCellNeighbours()
	return nil
}

// Triangulate fills m with the Delaunay triangulation of the given points
// as Tri3 cells. Node ids follow point order; cell ids follow face order.
func Triangulate(m *mesh.Mesh, points [][2]float64) error {
	if m.Dim() != 2 {
		return fmt.Errorf("builder: triangulation needs a 2D mesh, have %dD", m.Dim())
	}
	if len(points) < 3 {
		return fmt.Errorf("builder: triangulation needs at least 3 points, have %d", len(points))
	}

	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p[0], p[1]}
	}
	if err := m.CreateNodes(0, coords, true); err != nil {
		return err
	}

	faces := triangle.Delaunay(points)
	if len(faces) == 0 {
		return fmt.Errorf("builder: triangulation produced no cells")
	}
	elem, err := element.New("ED2T3")
	if err != nil {
		return err
	}
	connectivity := make([][]types.Index, len(faces))
	for i, f := range faces {
		connectivity[i] = []types.Index{
			types.Index(f[0]), types.Index(f[1]), types.Index(f[2]),
		}
	}
	if err = m.CreateCells(0, elem, connectivity, true); err != nil {
		return err
	}
	m.ComputeCellNeighbours()
	return nil
}
