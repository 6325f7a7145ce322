package element

// Tri is the 3-node linear triangle on the unit reference triangle with
// vertices (0,0), (1,0), (0,1).
type Tri struct{}

func (Tri) Type() Type  { return Tri3 }
func (Tri) Dim() int    { return 2 }
func (Tri) NNodes() int { return 3 }

func (Tri) Shapefn(xi []float64) []float64 {
	return []float64{1 - xi[0] - xi[1], xi[0], xi[1]}
}

func (Tri) GradShapefn([]float64) [][]float64 {
	return [][]float64{{-1, -1}, {1, 0}, {0, 1}}
}

// NaturalCoordinates solves the affine map directly; the linear triangle
// needs no iteration.
func (Tri) NaturalCoordinates(nodes [][]float64, pt []float64) ([]float64, bool) {
	x0, y0 := nodes[0][0], nodes[0][1]
	a, b := nodes[1][0]-x0, nodes[2][0]-x0
	c, d := nodes[1][1]-y0, nodes[2][1]-y0
	det := a*d - b*c
	if det == 0 {
		return nil, false
	}
	px, py := pt[0]-x0, pt[1]-y0
	return []float64{(d*px - b*py) / det, (a*py - c*px) / det}, true
}

func (Tri) InReferenceRange(xi []float64) bool {
	return xi[0] >= -RefTol && xi[1] >= -RefTol && xi[0]+xi[1] <= 1+RefTol
}

func (Tri) Edges() [][2]int {
	return [][2]int{{0, 1}, {1, 2}, {2, 0}}
}

func (Tri) Faces() [][]int {
	return [][]int{{0, 1}, {1, 2}, {2, 0}}
}
