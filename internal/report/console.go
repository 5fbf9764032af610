// Package report turns solver output into console text, JSON and plots.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

const banner = "************************************************************"

// reportWriter stops at the first write error
type reportWriter struct {
	w   io.Writer
	err error
}

func (r *reportWriter) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// WriteBias prints the resistor values, the design parameters they were
// derived from and, when given, the finite-beta operating point.
func WriteBias(w io.Writer, p models.AmplifierParameters, sol *models.BiasSolution, op *models.OperatingPoint) error {
	r := &reportWriter{w: w}

	r.printf("\n%s\n\n", banner)
	r.printf("%s bias network (%s):\n", sol.Topology, sol.Mode)
	if sol.Topology == models.Cascode {
		r.printf("R3 = %s (supply to upper base)\n", FormatValue(sol.R3, "Ohms"))
		r.printf("R1 = %s (upper base to lower base)\n", FormatValue(sol.R1, "Ohms"))
		r.printf("R2 = %s (lower base to ground)\n", FormatValue(sol.R2, "Ohms"))
	} else {
		r.printf("R1 = %s\n", FormatValue(sol.R1, "Ohms"))
		r.printf("R2 = %s\n", FormatValue(sol.R2, "Ohms"))
	}
	r.printf("RE = %s\n", FormatValue(sol.RE, "Ohms"))

	r.printf("\nDesign parameters:\n")
	r.printf("R1||R2 = %s\n", FormatValue(sol.RParallel, "Ohms"))
	if p.RESupplied {
		r.printf("R_E = %s (supplied)\n", FormatValue(p.RE, "Ohms"))
	} else {
		r.printf("R_C = %s\n", FormatValue(p.RC, "Ohms"))
	}
	if sol.Topology == models.Cascode {
		r.printf("V_ce1 = %s\n", FormatValue(sol.Vce1, "V"))
		r.printf("V_ce2 = %s\n", FormatValue(sol.Vce2, "V"))
		r.printf("V_upper = %s\n", FormatValue(sol.VUpper, "V"))
		r.printf("V_lower = %s\n", FormatValue(sol.VLower, "V"))
	} else {
		r.printf("V_ce = %s\n", FormatValue(sol.Vce, "V"))
		r.printf("V_div = %s\n", FormatValue(sol.VDiv, "V"))
	}
	r.printf("V_cc = %s\n", FormatValue(p.Vcc, "V"))
	r.printf("V_be = %s\n", FormatValue(p.Vbe, "V"))
	r.printf("I_E = %.3f mA\n", p.EmitterCurrent*1e3)

	if op != nil {
		r.printf("\nOperating point with beta = %g:\n", op.Beta)
		for i, v := range op.NodeVoltages {
			r.printf("V_B%d = %s\n", i+1, FormatValue(v, "V"))
		}
		r.printf("I_E = %.4f mA (%+.3f%% from target)\n", op.EmitterCurrent*1e3, op.Deviation*100)
	}

	r.printf("\n%s\n\n", banner)
	return r.err
}

// WriteDivider prints both divider estimates at the design centre frequency
func WriteDivider(w io.Writer, est *models.DividerEstimate) error {
	r := &reportWriter{w: w}

	r.printf("\n%s\n\n", banner)
	r.printf("First guess to achieve Z_in = %g Ohms:\n", est.TargetImpedance)
	r.printf("\nWith no series capacitor:\n")
	r.printf("R1||R2 = %s\n", FormatValue(est.RParallelNoCap, "Ohms"))
	r.printf("\nWith a series capacitor:\n")
	r.printf("R1||R2 = %s\n", FormatValue(est.RParallelWithCap, "Ohms"))
	if est.SeriesCapRequired {
		r.printf("C_series = %.4f pF\n", est.CSeries*1e12)
	} else {
		r.printf("C_series = not required\n")
	}
	r.printf("\n%s\n\n", banner)
	r.printf("NOTE: calculated for f = %s\n", FormatFrequency(est.Frequency))
	r.printf("NOTE: Z_ext = %s\n\n", FormatComplex(est.ZExt))
	return r.err
}

// WriteResponse summarizes a sweep: extremes and the band edges
func WriteResponse(w io.Writer, resp *models.FrequencyResponse) error {
	r := &reportWriter{w: w}
	n := len(resp.Frequencies)
	if n == 0 {
		return fmt.Errorf("empty frequency response")
	}

	unit := "Ohms"
	name := "Input impedance"
	if resp.Quantity == models.VoltageGain {
		unit = "V/V"
		name = "Voltage gain"
	}

	r.printf("Calculating for amplifier type: %s\n", resp.Topology)
	r.printf("%s over %s to %s (%d points)\n", name,
		FormatFrequency(resp.Frequencies[0]), FormatFrequency(resp.Frequencies[n-1]), n)
	r.printf("|H| range: %.4f to %.4f %s\n", floats.Min(resp.Magnitude), floats.Max(resp.Magnitude), unit)
	r.printf("Phase range: %.4f to %.4f deg\n", floats.Min(resp.PhaseDeg), floats.Max(resp.PhaseDeg))
	r.printf("dB reference: %g %s\n", resp.Reference, unit)

	r.printf("\n%-14s %12s %12s %12s\n", "Frequency", "|H|", "dB", "Phase(deg)")
	r.printf("%s\n", strings.Repeat("-", 53))
	for _, i := range summaryRows(n) {
		r.printf("%-14s %12.4f %12.4f %12.4f\n", FormatFrequency(resp.Frequencies[i]),
			resp.Magnitude[i], resp.MagnitudeDB[i], resp.PhaseDeg[i])
	}
	return r.err
}

// WriteSensitivity prints the measured points against the target current
func WriteSensitivity(w io.Writer, s *models.Sensitivity) error {
	r := &reportWriter{w: w}

	r.printf("Target collector current: %.3f mA\n", s.TargetCurrent*1e3)
	if len(s.Grid.Percent) > 0 && len(s.Grid.Percent[0]) > 0 {
		lo, hi := errorGrid{s.Grid}.bounds()
		r.printf("Current error over the grid: %.2f%% to %.2f%%\n", lo, hi)
	}
	for _, pt := range s.TestPoints {
		r.printf("%-15s Vbe = %.3f V, beta = %g: I = %.4f mA (%+.2f%%)\n", pt.Label, pt.Vbe, pt.Beta,
			pt.Current*1e3, (pt.Current-s.TargetCurrent)/s.TargetCurrent*100)
	}
	return r.err
}

// WriteJSON encodes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// summaryRows picks the first, quarter points and last sample
func summaryRows(n int) []int {
	if n <= 5 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	return []int{0, n / 4, n / 2, 3 * n / 4, n - 1}
}
