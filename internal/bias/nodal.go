package bias

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// nodal is a small real-valued nodal system with 1-based node indices
type nodal struct {
	size   int
	matrix *sparse.Matrix
	rhs    []float64
}

func newNodal(size int) (*nodal, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating nodal matrix: %w", err)
	}
	return &nodal{
		size:   size,
		matrix: mat,
		rhs:    make([]float64, size+1),
	}, nil
}

func (n *nodal) add(i, j int, value float64) {
	n.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (n *nodal) addRHS(i int, value float64) {
	n.rhs[i] += value
}

// solve factors the matrix and returns the node voltages, 0-based
func (n *nodal) solve() ([]float64, error) {
	if err := n.matrix.Factor(); err != nil {
		return nil, fmt.Errorf("factoring nodal matrix: %w", err)
	}
	x, err := n.matrix.Solve(n.rhs)
	if err != nil {
		return nil, fmt.Errorf("solving nodal matrix: %w", err)
	}
	return x[1 : n.size+1], nil
}

func (n *nodal) destroy() {
	n.matrix.Destroy()
}
