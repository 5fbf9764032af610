// Package bias derives resistor values for the DC bias network of
// common-emitter and cascode BJT stages from target currents and voltages.
package bias

import (
	"fmt"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/dvirhilu/NMR-Preamplifier/internal/impedance"
	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// MinVce is the collector-emitter voltage below which the device is
// considered saturated
const MinVce = 0.3

// boundaryTol lets the maximize mode land exactly on an inequality boundary
const boundaryTol = 1e-9

// SolveCommonEmitter computes R1 (supply side) and R2 (ground side) of the
// base divider so that Vcc*R2/(R1+R2) = I_E*RE + Vbe.
func SolveCommonEmitter(p models.AmplifierParameters, mode models.SolveMode) (*models.BiasSolution, error) {
	if err := checkInputs(p, mode); err != nil {
		return nil, err
	}
	ie := p.EmitterCurrent

	re, vce := p.RE, p.Vce
	if p.RESupplied {
		vce = p.Vcc - ie*(p.RC+re)
	} else {
		re = (p.Vcc - ie*p.RC - vce) / ie
	}
	if re <= 0 {
		return nil, violation(models.CommonEmitter, ConstraintEmitterResistor, Operand{"RE", re})
	}

	if err := checkActiveRegion(models.CommonEmitter, p, vce); err != nil {
		return nil, err
	}
	if vce < MinVce {
		return nil, violation(models.CommonEmitter, ConstraintSaturation, Operand{"Vce", vce})
	}

	vdiv := ie*re + p.Vbe
	if vdiv >= p.Vcc {
		return nil, violation(models.CommonEmitter, ConstraintDividerBelowVcc,
			Operand{"Vdiv", vdiv}, Operand{"Vcc", p.Vcc})
	}

	rpar := p.RParallel
	if mode == models.MaximizeParallel {
		rpar = re
	}

	// R2 = a*R1 from the divider ratio, R1 = b*R||
	a := vdiv / (p.Vcc - vdiv)
	b := (a + 1) / a
	r1 := b * rpar
	r2 := a * r1

	par := real(impedance.Parallel(complex(r1, 0), complex(r2, 0)))
	if !atMost(par, re) {
		return nil, violation(models.CommonEmitter, ConstraintBetaInsensitivity,
			Operand{"R1||R2", par}, Operand{"RE", re})
	}

	return &models.BiasSolution{
		Topology:  models.CommonEmitter,
		Mode:      mode,
		R1:        r1,
		R2:        r2,
		RE:        re,
		RParallel: par,
		VDiv:      vdiv,
		Vce:       vce,
	}, nil
}

// Solve dispatches to the solver for the given topology
func Solve(p models.AmplifierParameters, topology models.Topology, mode models.SolveMode) (*models.BiasSolution, error) {
	switch topology {
	case models.Cascode:
		return SolveCascode(p, mode)
	case models.CommonEmitter, "":
		return SolveCommonEmitter(p, mode)
	default:
		return nil, fmt.Errorf("%w: unknown topology %q", ErrInvalidParameter, topology)
	}
}

// EmitterResistor returns the supplied RE, or the value implied by RC and
// the common-emitter Vce
func EmitterResistor(p models.AmplifierParameters) float64 {
	if p.RESupplied {
		return p.RE
	}
	return (p.Vcc - p.EmitterCurrent*p.RC - p.Vce) / p.EmitterCurrent
}

func checkInputs(p models.AmplifierParameters, mode models.SolveMode) error {
	switch {
	case mode != models.TargetParallel && mode != models.MaximizeParallel:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	case p.EmitterCurrent <= 0:
		return fmt.Errorf("%w: emitter current must be positive, got %g", ErrInvalidParameter, p.EmitterCurrent)
	case p.Vcc <= 0:
		return fmt.Errorf("%w: supply voltage must be positive, got %g", ErrInvalidParameter, p.Vcc)
	case p.RC < 0:
		return fmt.Errorf("%w: collector resistor must not be negative, got %g", ErrInvalidParameter, p.RC)
	case mode == models.TargetParallel && p.RParallel <= 0:
		return fmt.Errorf("%w: target R1||R2 must be positive, got %g", ErrInvalidParameter, p.RParallel)
	}
	return nil
}

func checkActiveRegion(topology models.Topology, p models.AmplifierParameters, vce float64) error {
	headroom := p.EmitterCurrent*p.RC + vce
	if p.Vbe > headroom {
		return violation(topology, ConstraintActiveRegion,
			Operand{"Vbe", p.Vbe}, Operand{"I_E*RC+Vce", headroom})
	}
	return nil
}

// atMost reports lhs <= rhs, treating values within boundaryTol as equal
func atMost(lhs, rhs float64) bool {
	return lhs <= rhs || scalar.EqualWithinRel(lhs, rhs, boundaryTol)
}
