package bias

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// ErrInvalidParameter marks inputs that are not physical (non-positive
// currents, supplies or resistances)
var ErrInvalidParameter = errors.New("invalid amplifier parameter")

// ErrUnknownMode is returned for solve modes other than target-parallel and maximize
var ErrUnknownMode = errors.New("unknown solve mode")

// Feasibility constraints checked before a solution is accepted
const (
	ConstraintEmitterResistor   = "RE > 0"
	ConstraintDividerBelowVcc   = "Vdiv < Vcc"
	ConstraintBetaInsensitivity = "R1||R2 <= RE"
	ConstraintCascodeBeta       = "RE >= R2*(2*R3+R1)/(R1+R2+R3)"
	ConstraintActiveRegion      = "Vbe <= I_E*RC + Vce"
	ConstraintSaturation        = "Vce >= 0.3V"
)

// Operand is a named value taking part in a violated inequality
type Operand struct {
	Name  string
	Value float64
}

// InvalidDesignError reports a resistor set that violates an electrical
// feasibility inequality
type InvalidDesignError struct {
	Topology   models.Topology
	Constraint string
	Operands   []Operand
}

func (e *InvalidDesignError) Error() string {
	parts := make([]string, len(e.Operands))
	for i, op := range e.Operands {
		parts[i] = fmt.Sprintf("%s=%.6g", op.Name, op.Value)
	}
	return fmt.Sprintf("invalid %s design: constraint %s violated (%s)",
		strings.ToLower(e.Topology.String()), e.Constraint, strings.Join(parts, ", "))
}

// Value returns the operand with the given name
func (e *InvalidDesignError) Value(name string) (float64, bool) {
	for _, op := range e.Operands {
		if op.Name == name {
			return op.Value, true
		}
	}
	return 0, false
}

func violation(topology models.Topology, constraint string, operands ...Operand) error {
	return &InvalidDesignError{Topology: topology, Constraint: constraint, Operands: operands}
}
