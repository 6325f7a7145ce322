// Package element provides the linear shape-function elements the mesh uses
// for point containment and reference-coordinate computation. Higher-order
// families are out of scope; the mesh only needs the geometric mapping.
package element

import "fmt"

// Type enumerates the supported element shapes.
type Type int

const (
	Tri3 Type = iota
	Quad4
	Hex8
)

func (t Type) String() string {
	return [...]string{"Tri3", "Quad4", "Hex8"}[t]
}

// Tolerance on the reference-coordinate range check. A point on a shared
// face is accepted by both cells; localization takes the first match.
const RefTol = 1.0e-10

// Element is a geometric shape-function provider.
type Element interface {
	Type() Type
	Dim() int
	NNodes() int
	// Shapefn evaluates the shape functions at natural coordinates xi.
	Shapefn(xi []float64) []float64
	// GradShapefn evaluates dN/dxi at xi, indexed [node][dim].
	GradShapefn(xi []float64) [][]float64
	// NaturalCoordinates inverts the isoparametric map: given the element's
	// node coordinates and a physical point, it returns the natural
	// coordinates. ok is false if the inversion did not converge.
	NaturalCoordinates(nodes [][]float64, pt []float64) (xi []float64, ok bool)
	// InReferenceRange reports whether xi lies inside the reference element,
	// within RefTol.
	InReferenceRange(xi []float64) bool
	// Edges returns the element's edges as local node-index pairs.
	Edges() [][2]int
	// Faces returns the element's faces as ordered local node-index lists.
	// For 2D elements the faces are the edges.
	Faces() [][]int
}

// Element type names follow the <dim><shape><nnodes> input convention,
// e.g. ED2Q4 is the 2D four-node quadrilateral.
var registry = map[string]func() Element{
	"ED2T3": func() Element { return Tri{} },
	"ED2Q4": func() Element { return Quad{} },
	"ED3H8": func() Element { return Hex{} },
}

// New constructs an element by registered type name.
func New(name string) (Element, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("element: unknown element type %q", name)
	}
	return ctor(), nil
}
