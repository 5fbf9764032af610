package bias

import (
	"github.com/dvirhilu/NMR-Preamplifier/internal/impedance"
	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// SolveCascode computes the three-resistor divider feeding both bases of a
// cascode. R3 connects the supply to the upper base, R1 joins the upper
// and lower bases and R2 returns the lower base to ground.
func SolveCascode(p models.AmplifierParameters, mode models.SolveMode) (*models.BiasSolution, error) {
	if err := checkInputs(p, mode); err != nil {
		return nil, err
	}
	ie := p.EmitterCurrent

	re, vce1, vce2 := p.RE, p.Vce1, p.Vce2
	if p.RESupplied {
		vce1 = p.Vcc - ie*(p.RC+re) - vce2
	} else {
		re = (p.Vcc - ie*p.RC - vce1 - vce2) / ie
	}
	if re <= 0 {
		return nil, violation(models.Cascode, ConstraintEmitterResistor, Operand{"RE", re})
	}

	if err := checkActiveRegion(models.Cascode, p, vce1); err != nil {
		return nil, err
	}
	if vce1 < MinVce {
		return nil, violation(models.Cascode, ConstraintSaturation, Operand{"Vce1", vce1})
	}
	if vce2 < MinVce {
		return nil, violation(models.Cascode, ConstraintSaturation, Operand{"Vce2", vce2})
	}

	vUpper := ie*re + vce2 + p.Vbe
	vLower := ie*re + p.Vbe
	if vUpper >= p.Vcc {
		return nil, violation(models.Cascode, ConstraintDividerBelowVcc,
			Operand{"V1", vUpper}, Operand{"Vcc", p.Vcc})
	}

	a := (vUpper - vLower) / (p.Vcc - vUpper)
	b := vLower / (p.Vcc - vUpper)

	var r3 float64
	switch mode {
	case models.MaximizeParallel:
		r3 = (a + b + 1) / (2*b + a*b) * re
	default:
		r3 = (a + b) / (a * b) * p.RParallel
	}
	r1 := a * r3
	r2 := b * r3

	bound := r2 * (2*r3 + r1) / (r1 + r2 + r3)
	if !atMost(bound, re) {
		return nil, violation(models.Cascode, ConstraintCascodeBeta,
			Operand{"RE", re}, Operand{"R2*(2*R3+R1)/(R1+R2+R3)", bound})
	}

	return &models.BiasSolution{
		Topology:  models.Cascode,
		Mode:      mode,
		R1:        r1,
		R2:        r2,
		R3:        r3,
		RE:        re,
		RParallel: real(impedance.Parallel(complex(r1, 0), complex(r2, 0))),
		VUpper:    vUpper,
		VLower:    vLower,
		Vce1:      vce1,
		Vce2:      vce2,
	}, nil
}
