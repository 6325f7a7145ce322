package element

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	newtonMaxIter = 20
	newtonTol     = 1.0e-12
)

// naturalNewton inverts the isoparametric map x(xi) = sum_i N_i(xi) X_i by
// Newton iteration from the element centre. Shared by the tensor-product
// elements, whose mapping is nonlinear for non-parallelogram cells.
func naturalNewton(e Element, nodes [][]float64, pt []float64) ([]float64, bool) {
	dim := e.Dim()
	xi := make([]float64, dim) // centre of the reference element
	res := make([]float64, dim)

	jac := mat.NewDense(dim, dim, nil)
	rhs := mat.NewVecDense(dim, nil)
	var dxi mat.VecDense

	for iter := 0; iter < newtonMaxIter; iter++ {
		shape := e.Shapefn(xi)

		// Residual r = x(xi) - pt.
		for d := 0; d < dim; d++ {
			res[d] = -pt[d]
			for n := 0; n < e.NNodes(); n++ {
				res[d] += shape[n] * nodes[n][d]
			}
		}
		if floats.Norm(res, 2) < newtonTol {
			return xi, true
		}

		// Jacobian J_dk = dx_d/dxi_k.
		grad := e.GradShapefn(xi)
		for d := 0; d < dim; d++ {
			for k := 0; k < dim; k++ {
				var sum float64
				for n := 0; n < e.NNodes(); n++ {
					sum += grad[n][k] * nodes[n][d]
				}
				jac.Set(d, k, sum)
			}
			rhs.SetVec(d, -res[d])
		}
		if err := dxi.SolveVec(jac, rhs); err != nil {
			// Degenerate cell geometry.
			return xi, false
		}
		for d := 0; d < dim; d++ {
			xi[d] += dxi.AtVec(d)
		}
	}
	// Accept the final iterate if the residual is merely slack, not wild.
	shape := e.Shapefn(xi)
	for d := 0; d < dim; d++ {
		res[d] = -pt[d]
		for n := 0; n < e.NNodes(); n++ {
			res[d] += shape[n] * nodes[n][d]
		}
	}
	return xi, floats.Norm(res, 2) < 1.0e-8
}
