package models

// SensitivityCurve is collector current (A) against one swept device parameter
// with the other held at a fixed value
type SensitivityCurve struct {
	Label string    `json:"label"`
	Fixed float64   `json:"fixed"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
}

// TestPoint is a measured (Vbe, beta) pair and the current it implies
type TestPoint struct {
	Label   string  `json:"label"`
	Vbe     float64 `json:"vbe"`
	Beta    float64 `json:"beta"`
	Current float64 `json:"current"`
}

// ErrorGrid holds the percent deviation from the target current;
// Percent[i][j] belongs to Vbe[i] and Beta[j]
type ErrorGrid struct {
	Vbe     []float64   `json:"vbe"`
	Beta    []float64   `json:"beta"`
	Percent [][]float64 `json:"percent"`
}

// Sensitivity collects every view of the collector-current sensitivity of a
// common-emitter divider
type Sensitivity struct {
	TargetCurrent float64            `json:"target_current"`
	VbeCurves     []SensitivityCurve `json:"vbe_curves"`
	BetaCurves    []SensitivityCurve `json:"beta_curves"`
	Grid          ErrorGrid          `json:"grid"`
	TestPoints    []TestPoint        `json:"test_points,omitempty"`
}
