package bias

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// MeasuredPoints are device parameters observed on the built amplifier
var MeasuredPoints = []models.TestPoint{
	{Label: "Simulation", Vbe: 0.771, Beta: 325},
	{Label: "Outside Magnet", Vbe: 0.76, Beta: 405},
	{Label: "Inside Magnet", Vbe: 0.758, Beta: 409},
}

// CollectorCurrent is the emitter-branch current of a common-emitter stage
// biased by an R1/R2 divider, including the base-current loading of the
// divider.
func CollectorCurrent(vcc, r1, r2, re, vbe, beta float64) float64 {
	vdiv := vcc * r2 / (r1 + r2)
	rpar := r1 * r2 / (r1 + r2)
	return (vdiv - vbe) / (rpar/beta + re)
}

// Divider is a fixed common-emitter bias network under evaluation
type Divider struct {
	Vcc           float64 `json:"vcc"`
	R1            float64 `json:"r1"`
	R2            float64 `json:"r2"`
	RE            float64 `json:"re"`
	TargetCurrent float64 `json:"target_current"`
}

// NewDivider builds a Divider from design parameters and chosen resistors.
// RE is taken from the parameters when supplied, otherwise derived from RC
// and Vce.
func NewDivider(p models.AmplifierParameters, r1, r2 float64) (Divider, error) {
	if r1 <= 0 || r2 <= 0 {
		return Divider{}, fmt.Errorf("%w: divider resistors must be positive, got R1=%g R2=%g", ErrInvalidParameter, r1, r2)
	}
	if p.EmitterCurrent <= 0 {
		return Divider{}, fmt.Errorf("%w: emitter current must be positive, got %g", ErrInvalidParameter, p.EmitterCurrent)
	}
	re := EmitterResistor(p)
	if re <= 0 {
		return Divider{}, violation(models.CommonEmitter, ConstraintEmitterResistor, Operand{"RE", re})
	}
	return Divider{Vcc: p.Vcc, R1: r1, R2: r2, RE: re, TargetCurrent: p.EmitterCurrent}, nil
}

// Current evaluates the collector current for one device
func (d Divider) Current(vbe, beta float64) float64 {
	return CollectorCurrent(d.Vcc, d.R1, d.R2, d.RE, vbe, beta)
}

// PercentError is the deviation of the current from the target, in percent
func (d Divider) PercentError(vbe, beta float64) float64 {
	return (d.Current(vbe, beta) - d.TargetCurrent) / d.TargetCurrent * 100
}

// VbeCurves sweeps Vbe once per beta
func (d Divider) VbeCurves(vbe, betas []float64) []models.SensitivityCurve {
	curves := make([]models.SensitivityCurve, len(betas))
	for i, beta := range betas {
		y := make([]float64, len(vbe))
		for j, v := range vbe {
			y[j] = d.Current(v, beta)
		}
		curves[i] = models.SensitivityCurve{
			Label: fmt.Sprintf("β=%d", int(beta)),
			Fixed: beta,
			X:     vbe,
			Y:     y,
		}
	}
	return curves
}

// BetaCurves sweeps beta once per Vbe
func (d Divider) BetaCurves(betas, vbes []float64) []models.SensitivityCurve {
	curves := make([]models.SensitivityCurve, len(vbes))
	for i, vbe := range vbes {
		y := make([]float64, len(betas))
		for j, beta := range betas {
			y[j] = d.Current(vbe, beta)
		}
		curves[i] = models.SensitivityCurve{
			Label: fmt.Sprintf("Vbe=%.1f", vbe),
			Fixed: vbe,
			X:     betas,
			Y:     y,
		}
	}
	return curves
}

// ErrorGrid evaluates PercentError over every (Vbe, beta) pair
func (d Divider) ErrorGrid(vbes, betas []float64) models.ErrorGrid {
	percent := make([][]float64, len(vbes))
	for i, vbe := range vbes {
		row := make([]float64, len(betas))
		for j, beta := range betas {
			row[j] = d.PercentError(vbe, beta)
		}
		percent[i] = row
	}
	return models.ErrorGrid{Vbe: vbes, Beta: betas, Percent: percent}
}

// TestPoints evaluates the divider at MeasuredPoints
func (d Divider) TestPoints() []models.TestPoint {
	points := make([]models.TestPoint, len(MeasuredPoints))
	for i, pt := range MeasuredPoints {
		pt.Current = d.Current(pt.Vbe, pt.Beta)
		points[i] = pt
	}
	return points
}

// Ranges are the parameter sweeps used by Analyze
type Ranges struct {
	// Vbe axis and the beta values it is plotted for
	Vbe       []float64
	VbeCurves []float64
	// beta axis and the Vbe values it is plotted for
	Beta       []float64
	BetaCurves []float64
	// axes of the percent-error grid
	GridVbe  []float64
	GridBeta []float64
}

// DefaultRanges returns the sweeps used for the sensitivity plots
func DefaultRanges() Ranges {
	return Ranges{
		Vbe:        floats.Span(make([]float64, 1000), 0.5, 1.25),
		VbeCurves:  floats.Span(make([]float64, 5), 100, 500),
		Beta:       floats.Span(make([]float64, 1000), 1, 500),
		BetaCurves: floats.Span(make([]float64, 6), 0.5, 1),
		GridVbe:    floats.Span(make([]float64, 100), 0.5, 1.25),
		GridBeta:   floats.LogSpan(make([]float64, 100), 1, math.Pow(10, 2.7)),
	}
}

// Analyze produces all sensitivity views for the divider
func Analyze(d Divider, r Ranges, withTestData bool) *models.Sensitivity {
	s := &models.Sensitivity{
		TargetCurrent: d.TargetCurrent,
		VbeCurves:     d.VbeCurves(r.Vbe, r.VbeCurves),
		BetaCurves:    d.BetaCurves(r.Beta, r.BetaCurves),
		Grid:          d.ErrorGrid(r.GridVbe, r.GridBeta),
	}
	if withTestData {
		s.TestPoints = d.TestPoints()
	}
	return s
}
