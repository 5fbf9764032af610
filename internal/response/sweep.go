package response

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// ErrInvalidSweep is returned for sweeps with fewer than two points or
// bounds that are not 0 < start < stop
var ErrInvalidSweep = errors.New("invalid frequency sweep")

// Spacing selects how sweep samples are distributed
type Spacing string

const (
	Linear      Spacing = "linear"
	Logarithmic Spacing = "log"
)

// Design band of the preamplifier
const (
	BandStart       = 125e6
	BandStop        = 500e6
	DefaultPoints   = 1000
	CenterFrequency = (BandStart + BandStop) / 2
)

// NewSweep builds n samples from start to stop inclusive
func NewSweep(start, stop float64, n int, spacing Spacing) (models.FrequencySweep, error) {
	if n < 2 {
		return models.FrequencySweep{}, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidSweep, n)
	}
	if !(start > 0) || !(stop > start) || math.IsInf(stop, 0) {
		return models.FrequencySweep{}, fmt.Errorf("%w: bounds must satisfy 0 < start < stop, got [%g, %g]", ErrInvalidSweep, start, stop)
	}

	freqs := make([]float64, n)
	switch spacing {
	case Linear, "":
		floats.Span(freqs, start, stop)
	case Logarithmic:
		floats.LogSpan(freqs, start, stop)
	default:
		return models.FrequencySweep{}, fmt.Errorf("%w: unknown spacing %q", ErrInvalidSweep, spacing)
	}
	// Span and LogSpan can miss the bounds by a few ulps
	freqs[0], freqs[n-1] = start, stop
	return models.FrequencySweep{Frequencies: freqs}, nil
}

// DefaultSweep covers the design band with DefaultPoints linear samples
func DefaultSweep() models.FrequencySweep {
	sweep, _ := NewSweep(BandStart, BandStop, DefaultPoints, Linear)
	return sweep
}
