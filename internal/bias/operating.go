package bias

import (
	"fmt"

	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// OperatingPoint solves the DC network of a solved divider with a finite
// beta and reports the emitter current it actually produces. The base
// current is modelled as I_E/(beta+1) with V_E = V_B - Vbe; for the cascode
// the upper device also draws its base current from the R3/R1 junction.
func OperatingPoint(p models.AmplifierParameters, sol *models.BiasSolution) (*models.OperatingPoint, error) {
	if sol == nil {
		return nil, fmt.Errorf("%w: no bias solution", ErrInvalidParameter)
	}
	if p.Beta <= 0 {
		return nil, fmt.Errorf("%w: beta must be positive, got %g", ErrInvalidParameter, p.Beta)
	}
	if sol.RE <= 0 || sol.R1 <= 0 || sol.R2 <= 0 {
		return nil, fmt.Errorf("%w: divider resistors must be positive", ErrInvalidParameter)
	}

	var (
		nodes []float64
		err   error
	)
	switch sol.Topology {
	case models.Cascode:
		if sol.R3 <= 0 {
			return nil, fmt.Errorf("%w: cascode R3 must be positive", ErrInvalidParameter)
		}
		nodes, err = cascodeNodes(p, sol)
	default:
		nodes, err = commonEmitterNodes(p, sol)
	}
	if err != nil {
		return nil, err
	}

	base := nodes[len(nodes)-1]
	ie := (base - p.Vbe) / sol.RE
	return &models.OperatingPoint{
		Beta:           p.Beta,
		NodeVoltages:   nodes,
		EmitterCurrent: ie,
		TargetCurrent:  p.EmitterCurrent,
		Deviation:      (ie - p.EmitterCurrent) / p.EmitterCurrent,
	}, nil
}

func commonEmitterNodes(p models.AmplifierParameters, sol *models.BiasSolution) ([]float64, error) {
	sys, err := newNodal(1)
	if err != nil {
		return nil, err
	}
	defer sys.destroy()

	g1, g2 := 1/sol.R1, 1/sol.R2
	k := 1 / ((p.Beta + 1) * sol.RE)

	sys.add(1, 1, g1+g2+k)
	sys.addRHS(1, g1*p.Vcc+k*p.Vbe)
	return sys.solve()
}

// cascodeNodes returns [V_upper, V_lower]
func cascodeNodes(p models.AmplifierParameters, sol *models.BiasSolution) ([]float64, error) {
	sys, err := newNodal(2)
	if err != nil {
		return nil, err
	}
	defer sys.destroy()

	g1, g2, g3 := 1/sol.R1, 1/sol.R2, 1/sol.R3
	k1 := 1 / ((p.Beta + 1) * sol.RE)
	// upper base current is alpha*I_E/(beta+1)
	k2 := p.Beta / ((p.Beta + 1) * (p.Beta + 1) * sol.RE)

	sys.add(1, 1, g3+g1)
	sys.add(1, 2, -g1+k2)
	sys.addRHS(1, g3*p.Vcc+k2*p.Vbe)

	sys.add(2, 1, -g1)
	sys.add(2, 2, g1+g2+k1)
	sys.addRHS(2, k1*p.Vbe)
	return sys.solve()
}
