package models

import (
	"time"
)

// Topology identifies the single-stage amplifier configuration
type Topology string

const (
	CommonEmitter Topology = "common-emitter"
	Cascode       Topology = "cascode"
)

// String returns the human-readable topology name used in reports
func (t Topology) String() string {
	switch t {
	case Cascode:
		return "Cascode"
	default:
		return "Common-Emitter"
	}
}

// SolveMode selects how the base divider resistance is chosen
type SolveMode string

const (
	// TargetParallel solves for a requested R1||R2
	TargetParallel SolveMode = "target-parallel"
	// MaximizeParallel pushes the divider resistance to the beta-insensitivity bound
	MaximizeParallel SolveMode = "maximize"
)

// AmplifierParameters is the flat record of scalar design inputs
type AmplifierParameters struct {
	Vcc            float64 `json:"vcc" doc:"Supply voltage in V"`
	Vbe            float64 `json:"vbe" doc:"Base-emitter voltage in V"`
	EmitterCurrent float64 `json:"emitter_current" doc:"Target emitter current in A"`
	Beta           float64 `json:"beta" doc:"Transistor current gain"`
	ThermalVoltage float64 `json:"thermal_voltage" doc:"Thermal voltage V_T in V"`
	CPi            float64 `json:"c_pi" doc:"Hybrid-pi C_pi in F"`
	CMu            float64 `json:"c_mu" doc:"Hybrid-pi C_mu in F"`
	CSeries        float64 `json:"c_series" doc:"Series input capacitor in F, +Inf when absent"`

	RC        float64 `json:"rc" doc:"Collector resistor in Ohms"`
	Vce       float64 `json:"vce" doc:"Common-emitter collector-emitter voltage in V"`
	Vce1      float64 `json:"vce1" doc:"Cascode lower device collector-emitter voltage in V"`
	Vce2      float64 `json:"vce2" doc:"Cascode upper device collector-emitter voltage in V"`
	RParallel float64 `json:"r_parallel" doc:"Requested divider parallel resistance in Ohms"`

	// RE is only meaningful when RESupplied is set; otherwise it is derived
	// from RC and the collector-emitter voltages.
	RE         float64 `json:"re,omitempty" doc:"Emitter resistor in Ohms"`
	RESupplied bool    `json:"re_supplied" doc:"Whether RE was given explicitly"`

	TargetImpedance float64 `json:"target_impedance" doc:"Target input impedance magnitude in Ohms"`
}

// BiasSolution holds the resistor values satisfying the bias equations.
//
// For the common-emitter stage R1 connects the supply to the base and R2
// the base to ground. For the cascode R3 connects the supply to the upper
// base, R1 sits between the two bases and R2 connects the lower base to
// ground.
type BiasSolution struct {
	Topology  Topology  `json:"topology"`
	Mode      SolveMode `json:"mode"`
	R1        float64   `json:"r1"`
	R2        float64   `json:"r2"`
	R3        float64   `json:"r3,omitempty"`
	RE        float64   `json:"re"`
	RParallel float64   `json:"r_parallel" doc:"R1||R2 of the solved divider"`

	// Node voltages the divider was solved for
	VDiv   float64 `json:"v_div,omitempty"`
	VUpper float64 `json:"v_upper,omitempty"`
	VLower float64 `json:"v_lower,omitempty"`

	// Collector-emitter voltages the solution implies
	Vce  float64 `json:"vce,omitempty"`
	Vce1 float64 `json:"vce1,omitempty"`
	Vce2 float64 `json:"vce2,omitempty"`
}

// OperatingPoint is the finite-beta DC solution of a solved divider
type OperatingPoint struct {
	Beta           float64   `json:"beta"`
	NodeVoltages   []float64 `json:"node_voltages" doc:"Base node voltages, upper first"`
	EmitterCurrent float64   `json:"emitter_current"`
	TargetCurrent  float64   `json:"target_current"`
	Deviation      float64   `json:"deviation" doc:"Relative deviation from the target current"`
}

// DividerEstimate is the first guess for the divider resistance that hits a
// target input impedance at a single frequency
type DividerEstimate struct {
	Frequency         float64    `json:"frequency"`
	TargetImpedance   float64    `json:"target_impedance"`
	ZExt              complex128 `json:"-"`
	RParallelNoCap    float64    `json:"r_parallel_no_cap"`
	RParallelWithCap  float64    `json:"r_parallel_with_cap"`
	CSeries           float64    `json:"c_series" doc:"+Inf when no capacitor is needed"`
	SeriesCapRequired bool       `json:"series_cap_required"`
}

// Run ties together everything produced by a single invocation
type Run struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Artifacts []string  `json:"artifacts,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
