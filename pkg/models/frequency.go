package models

// FrequencyPoint represents a single frequency measurement
type FrequencyPoint struct {
	Frequency float64 `json:"frequency" doc:"Frequency in Hz"`
	Magnitude float64 `json:"magnitude" doc:"Magnitude in dB"`
	Phase     float64 `json:"phase" doc:"Phase in degrees"`
}

// Quantity names what a frequency response describes
type Quantity string

const (
	InputImpedance Quantity = "input-impedance"
	VoltageGain    Quantity = "voltage-gain"
)

// FrequencySweep is an ordered, read-only set of frequency samples in Hz
type FrequencySweep struct {
	Frequencies []float64
}

// Len returns the number of samples
func (s FrequencySweep) Len() int { return len(s.Frequencies) }

// FrequencyResponse holds parallel per-sample arrays over a sweep
type FrequencyResponse struct {
	Quantity    Quantity     `json:"quantity"`
	Topology    Topology     `json:"topology"`
	Frequencies []float64    `json:"frequencies"`
	Values      []complex128 `json:"-"`
	Magnitude   []float64    `json:"magnitude" doc:"Linear magnitude"`
	MagnitudeDB []float64    `json:"magnitude_db" doc:"20*log10(|H|/Reference)"`
	PhaseDeg    []float64    `json:"phase_deg"`
	Reference   float64      `json:"reference" doc:"dB reference magnitude"`
}

// Points flattens the response into frequency points, stopping at the
// shortest of the frequency, dB and phase arrays
func (r *FrequencyResponse) Points() []FrequencyPoint {
	n := min(len(r.Frequencies), len(r.MagnitudeDB), len(r.PhaseDeg))
	points := make([]FrequencyPoint, n)
	for i := range points {
		points[i] = FrequencyPoint{Frequency: r.Frequencies[i], Magnitude: r.MagnitudeDB[i], Phase: r.PhaseDeg[i]}
	}
	return points
}

// BodeData is an externally simulated gain response
type BodeData struct {
	Source string           `json:"source"`
	Points []FrequencyPoint `json:"points"`
}

// Frequencies returns the sample frequencies in Hz
func (b *BodeData) Frequencies() []float64 {
	out := make([]float64, len(b.Points))
	for i, p := range b.Points {
		out[i] = p.Frequency
	}
	return out
}

// Gains returns the gain magnitudes in dB
func (b *BodeData) Gains() []float64 {
	out := make([]float64, len(b.Points))
	for i, p := range b.Points {
		out[i] = p.Magnitude
	}
	return out
}

// Phases returns the phases in degrees
func (b *BodeData) Phases() []float64 {
	out := make([]float64, len(b.Points))
	for i, p := range b.Points {
		out[i] = p.Phase
	}
	return out
}
