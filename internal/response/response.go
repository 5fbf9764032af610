// Package response evaluates the hybrid-pi small-signal model of a single
// BJT stage over a frequency sweep: input impedance, voltage gain and the
// inverse problem of sizing the base divider for a target impedance.
package response

import (
	"errors"
	"fmt"
	"math"

	"github.com/dvirhilu/NMR-Preamplifier/internal/impedance"
	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// ErrInvalidParameter marks small-signal inputs that would divide by zero
// or are not physical
var ErrInvalidParameter = errors.New("invalid small-signal parameter")

// EvaluateFrequencyResponse dispatches to the evaluator for the quantity
func EvaluateFrequencyResponse(p models.AmplifierParameters, sweep models.FrequencySweep,
	topology models.Topology, quantity models.Quantity) (*models.FrequencyResponse, error) {
	switch quantity {
	case models.InputImpedance:
		return InputImpedance(p, sweep, topology)
	case models.VoltageGain:
		return Gain(p, sweep, topology)
	default:
		return nil, fmt.Errorf("%w: unknown quantity %q", ErrInvalidParameter, quantity)
	}
}

// InputImpedance returns Z_in = R1||R2 || (z_pi||r_pi) || z_miller at every
// sweep sample, plus the reactance of the series input capacitor when one
// is fitted. Magnitudes in dB are relative to the target impedance.
func InputImpedance(p models.AmplifierParameters, sweep models.FrequencySweep, topology models.Topology) (*models.FrequencyResponse, error) {
	if err := checkModel(p, sweep); err != nil {
		return nil, err
	}
	if p.RParallel <= 0 {
		return nil, fmt.Errorf("%w: R1||R2 must be positive, got %g", ErrInvalidParameter, p.RParallel)
	}

	re := p.ThermalVoltage / p.EmitterCurrent
	rpi := p.Beta * re

	n := sweep.Len()
	omega := angular(sweep)
	zPi := make([]complex128, n)
	zMiller := make([]complex128, n)
	for i, w := range omega {
		zPi[i] = impedance.Reactance(w, p.CPi)
		zMu := impedance.Reactance(w, p.CMu)
		zMiller[i] = capacitor(w, complex(p.CMu, 0)*(1+millerGain(p, topology, re, zPi[i], zMu)))
	}

	zBJT, err := impedance.ParallelEach(zPi, rpi)
	if err != nil {
		return nil, fmt.Errorf("combining device impedance: %w", err)
	}
	zIn, err := impedance.ParallelEach(p.RParallel, zBJT, zMiller)
	if err != nil {
		return nil, fmt.Errorf("combining input impedance: %w", err)
	}

	if hasSeriesCap(p.CSeries) {
		for i, w := range omega {
			zIn[i] += impedance.Reactance(w, p.CSeries)
		}
	}

	ref := p.TargetImpedance
	if ref <= 0 {
		ref = 1
	}
	return newResponse(models.InputImpedance, topology, sweep, zIn, ref), nil
}

// Gain returns the small-signal voltage gain from base to collector. The
// cascode gain includes the current division into the upper device's
// emitter.
func Gain(p models.AmplifierParameters, sweep models.FrequencySweep, topology models.Topology) (*models.FrequencyResponse, error) {
	if err := checkModel(p, sweep); err != nil {
		return nil, err
	}
	if p.RC <= 0 {
		return nil, fmt.Errorf("%w: collector resistor must be positive, got %g", ErrInvalidParameter, p.RC)
	}

	gm := complex(p.EmitterCurrent/p.ThermalVoltage, 0)
	re := p.ThermalVoltage / p.EmitterCurrent

	values := make([]complex128, sweep.Len())
	for i, w := range angular(sweep) {
		zPi := impedance.Reactance(w, p.CPi)
		zMu := impedance.Reactance(w, p.CMu)

		g1 := gm - 1/zMu
		z3 := impedance.Parallel(complex(p.RC, 0), zMu)
		a := z3 * g1
		if topology == models.Cascode {
			z2 := impedance.Parallel(zMu, zPi, complex(p.Beta*re, 0))
			g2 := gm + 1/z2
			a = a * gm / g2
		}
		values[i] = a
	}
	return newResponse(models.VoltageGain, topology, sweep, values, 1), nil
}

// EstimateDividerForTargetImpedance gives a first guess for R1||R2 so that
// |Z_in| equals the target at CenterFrequency. Removing the device and
// Miller branches from the target leaves Z_ext, the impedance the divider
// (and optional series capacitor) must present.
func EstimateDividerForTargetImpedance(p models.AmplifierParameters, topology models.Topology) (*models.DividerEstimate, error) {
	if err := checkModel(p, models.FrequencySweep{Frequencies: []float64{CenterFrequency}}); err != nil {
		return nil, err
	}
	if p.TargetImpedance <= 0 {
		return nil, fmt.Errorf("%w: target impedance must be positive, got %g", ErrInvalidParameter, p.TargetImpedance)
	}

	w := 2 * math.Pi * CenterFrequency
	re := p.ThermalVoltage / p.EmitterCurrent
	zPi := impedance.Reactance(w, p.CPi)
	zMu := impedance.Reactance(w, p.CMu)
	zBJT := impedance.Parallel(zPi, complex(p.Beta*re, 0))
	zMiller := capacitor(w, complex(p.CMu, 0)*(1+millerGain(p, topology, re, zPi, zMu)))

	zExt := impedance.Parallel(complex(p.TargetImpedance, 0), -zBJT, -zMiller)

	est := &models.DividerEstimate{
		Frequency:        CenterFrequency,
		TargetImpedance:  p.TargetImpedance,
		ZExt:             zExt,
		RParallelNoCap:   impedance.Magnitude(zExt),
		RParallelWithCap: real(zExt),
		CSeries:          math.Inf(1),
	}
	if x := imag(zExt); x != 0 {
		est.CSeries = 1 / (w * x)
		est.SeriesCapRequired = true
	}
	return est, nil
}

// millerGain is the voltage gain across C_mu. For the cascode the lower
// device sees the low impedance of the upper device's emitter.
func millerGain(p models.AmplifierParameters, topology models.Topology, re float64, zPi, zMu complex128) complex128 {
	if topology == models.Cascode {
		r := complex(re, 0)
		return impedance.Parallel(r, zMu, zPi) / impedance.Parallel(r, zMu)
	}
	return complex(p.RC*p.EmitterCurrent/p.ThermalVoltage, 0)
}

// capacitor returns -j/(omega*c) for a complex capacitance
func capacitor(omega float64, c complex128) complex128 {
	return -1i / (complex(omega, 0) * c)
}

func hasSeriesCap(c float64) bool {
	return c > 0 && !math.IsInf(c, 1)
}

func angular(sweep models.FrequencySweep) []float64 {
	omega := make([]float64, sweep.Len())
	for i, f := range sweep.Frequencies {
		omega[i] = 2 * math.Pi * f
	}
	return omega
}

func checkModel(p models.AmplifierParameters, sweep models.FrequencySweep) error {
	switch {
	case sweep.Len() == 0:
		return fmt.Errorf("%w: empty sweep", ErrInvalidSweep)
	case p.EmitterCurrent <= 0:
		return fmt.Errorf("%w: emitter current must be positive, got %g", ErrInvalidParameter, p.EmitterCurrent)
	case p.ThermalVoltage <= 0:
		return fmt.Errorf("%w: thermal voltage must be positive, got %g", ErrInvalidParameter, p.ThermalVoltage)
	case p.Beta <= 0:
		return fmt.Errorf("%w: beta must be positive, got %g", ErrInvalidParameter, p.Beta)
	case p.CPi <= 0 || p.CMu <= 0:
		return fmt.Errorf("%w: junction capacitances must be positive, got C_pi=%g C_mu=%g", ErrInvalidParameter, p.CPi, p.CMu)
	}
	return nil
}

func newResponse(quantity models.Quantity, topology models.Topology, sweep models.FrequencySweep,
	values []complex128, ref float64) *models.FrequencyResponse {
	mag := impedance.Magnitudes(values)
	phase := impedance.Phases(values)
	db := make([]float64, len(values))
	for i := range values {
		db[i] = impedance.Decibels(mag[i], ref)
		phase[i] = impedance.Degrees(phase[i])
	}
	if topology == "" {
		topology = models.CommonEmitter
	}
	return &models.FrequencyResponse{
		Quantity:    quantity,
		Topology:    topology,
		Frequencies: sweep.Frequencies,
		Values:      values,
		Magnitude:   mag,
		MagnitudeDB: db,
		PhaseDeg:    phase,
		Reference:   ref,
	}
}
