// Package impedance provides the complex arithmetic shared by every
// amplifier calculation: parallel combination, magnitude and phase.
//
// Scalar helpers work on complex128 directly. The element-wise helpers
// accept any mix of scalars and slices so that a fixed resistor can be
// combined with a swept reactance without building the broadcast by hand.
package impedance

import (
	"fmt"
	"math"
)

// TypeMismatchError is returned when an operand is not a number or a
// slice of numbers
type TypeMismatchError struct {
	Index int
	Got   any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("impedance operand %d: expected a number or a slice of numbers, got %T", e.Index, e.Got)
}

// LengthMismatchError is returned when two slice operands disagree in length
type LengthMismatchError struct {
	Index    int
	Length   int
	Expected int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("impedance operand %d: length %d does not match %d", e.Index, e.Length, e.Expected)
}

// Parallel returns the parallel combination 1 / (1/z1 + 1/z2 + ...).
// A zero impedance yields the IEEE result rather than an error.
func Parallel(z1, z2 complex128, zs ...complex128) complex128 {
	sum := 1/z1 + 1/z2
	for _, z := range zs {
		sum += 1 / z
	}
	return 1 / sum
}

// Magnitude returns sqrt(re^2 + im^2)
func Magnitude(c complex128) float64 {
	re, im := real(c), imag(c)
	return math.Sqrt(re*re + im*im)
}

// Phase returns atan2(im, re) in radians
func Phase(c complex128) float64 {
	return math.Atan2(imag(c), real(c))
}

// Degrees converts radians to degrees
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Decibels returns 20*log10(mag/ref)
func Decibels(mag, ref float64) float64 {
	return 20 * math.Log10(mag/ref)
}

// Reactance returns the impedance -j/(omega*c) of an ideal capacitor
func Reactance(omega, c float64) complex128 {
	return complex(0, -1/(omega*c))
}
