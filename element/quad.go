package element

// Quad is the 4-node bilinear quadrilateral on the biunit square, nodes
// ordered counter-clockwise from (-1,-1).
type Quad struct{}

var quadSigns = [4][2]float64{
	{-1, -1}, {1, -1}, {1, 1}, {-1, 1},
}

func (Quad) Type() Type  { return Quad4 }
func (Quad) Dim() int    { return 2 }
func (Quad) NNodes() int { return 4 }

func (Quad) Shapefn(xi []float64) []float64 {
	shape := make([]float64, 4)
	for n, s := range quadSigns {
		shape[n] = 0.25 * (1 + s[0]*xi[0]) * (1 + s[1]*xi[1])
	}
	return shape
}

func (Quad) GradShapefn(xi []float64) [][]float64 {
	grad := make([][]float64, 4)
	for n, s := range quadSigns {
		grad[n] = []float64{
			0.25 * s[0] * (1 + s[1]*xi[1]),
			0.25 * s[1] * (1 + s[0]*xi[0]),
		}
	}
	return grad
}

func (q Quad) NaturalCoordinates(nodes [][]float64, pt []float64) ([]float64, bool) {
	return naturalNewton(q, nodes, pt)
}

func (Quad) InReferenceRange(xi []float64) bool {
	for _, v := range xi {
		if v < -1-RefTol || v > 1+RefTol {
			return false
		}
	}
	return true
}

func (Quad) Edges() [][2]int {
	return [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
}

func (Quad) Faces() [][]int {
	return [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
}
