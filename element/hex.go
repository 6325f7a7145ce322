package element

// Hex is the 8-node trilinear hexahedron on the biunit cube, bottom face
// counter-clockwise then top face counter-clockwise.
type Hex struct{}

var hexSigns = [8][3]float64{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

func (Hex) Type() Type  { return Hex8 }
func (Hex) Dim() int    { return 3 }
func (Hex) NNodes() int { return 8 }

func (Hex) Shapefn(xi []float64) []float64 {
	shape := make([]float64, 8)
	for n, s := range hexSigns {
		shape[n] = 0.125 * (1 + s[0]*xi[0]) * (1 + s[1]*xi[1]) * (1 + s[2]*xi[2])
	}
	return shape
}

func (Hex) GradShapefn(xi []float64) [][]float64 {
	grad := make([][]float64, 8)
	for n, s := range hexSigns {
		grad[n] = []float64{
			0.125 * s[0] * (1 + s[1]*xi[1]) * (1 + s[2]*xi[2]),
			0.125 * s[1] * (1 + s[0]*xi[0]) * (1 + s[2]*xi[2]),
			0.125 * s[2] * (1 + s[0]*xi[0]) * (1 + s[1]*xi[1]),
		}
	}
	return grad
}

func (h Hex) NaturalCoordinates(nodes [][]float64, pt []float64) ([]float64, bool) {
	return naturalNewton(h, nodes, pt)
}

func (Hex) InReferenceRange(xi []float64) bool {
	for _, v := range xi {
		if v < -1-RefTol || v > 1+RefTol {
			return false
		}
	}
	return true
}

// Edges lists the bottom ring, the top ring, then the vertical edges.
func (Hex) Edges() [][2]int {
	return [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
}

func (Hex) Faces() [][]int {
	return [][]int{
		{0, 1, 2, 3}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {1, 2, 6, 5},
		{2, 3, 7, 6}, {3, 0, 4, 7},
	}
}
