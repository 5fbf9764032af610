package impedance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/cmplxs"
)

func TestParallel(t *testing.T) {
	tests := []struct {
		name string
		zs   []complex128
		want complex128
	}{
		{name: "equal resistors halve", zs: []complex128{100, 100}, want: 50},
		{name: "three resistors", zs: []complex128{60, 30, 20}, want: 10},
		{name: "resistor and capacitor", zs: []complex128{1, -1i}, want: complex(0.5, -0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parallel(tt.zs[0], tt.zs[1], tt.zs[2:]...)
			assert.InDelta(t, real(tt.want), real(got), 1e-12)
			assert.InDelta(t, imag(tt.want), imag(got), 1e-12)
		})
	}
}

func TestParallel_AccumulatesEveryOperand(t *testing.T) {
	// Each extra operand must add to the reciprocal sum, not replace it.
	got := Parallel(100, 100, 100, 100)
	assert.InDelta(t, 25.0, real(got), 1e-12)
}

func TestParallel_NotLargerThanSmallest(t *testing.T) {
	sets := [][]float64{
		{1, 2},
		{50, 412, 10e3},
		{0.5, 0.5, 0.5, 1e9},
		{127, 750, 100},
	}
	for _, set := range sets {
		zs := make([]complex128, len(set))
		smallest := math.Inf(1)
		for i, r := range set {
			zs[i] = complex(r, 0)
			smallest = math.Min(smallest, r)
		}
		got := real(Parallel(zs[0], zs[1], zs[2:]...))
		assert.LessOrEqual(t, got, smallest)
	}
}

func TestParallel_CommutativeAndAssociative(t *testing.T) {
	a, b, c := complex(50, 0), complex(3, -120), complex(0, -400)

	abc := Parallel(a, b, c)
	assert.InDelta(t, real(abc), real(Parallel(c, a, b)), 1e-9)
	assert.InDelta(t, imag(abc), imag(Parallel(c, a, b)), 1e-9)

	nested := Parallel(Parallel(a, b), c)
	assert.InDelta(t, real(abc), real(nested), 1e-9)
	assert.InDelta(t, imag(abc), imag(nested), 1e-9)
}

func TestMagnitude(t *testing.T) {
	assert.Equal(t, 5.0, Magnitude(3+4i))
	assert.Equal(t, 12.0, Magnitude(complex(-12, 0)))
	assert.Equal(t, 0.0, Magnitude(0))
}

func TestPhase(t *testing.T) {
	assert.InDelta(t, math.Pi/4, Phase(1+1i), 1e-15)
	assert.InDelta(t, math.Pi, Phase(-1+0i), 1e-15)
	assert.Equal(t, 0.0, Phase(complex(42, 0)))
	assert.InDelta(t, 45.0, Degrees(Phase(1+1i)), 1e-12)
}

func TestDecibels(t *testing.T) {
	assert.InDelta(t, 20.0, Decibels(10, 1), 1e-12)
	assert.InDelta(t, 0.0, Decibels(50, 50), 1e-12)
	assert.InDelta(t, -6.0206, Decibels(25, 50), 1e-4)
}

func TestReactance(t *testing.T) {
	z := Reactance(2*math.Pi*1e6, 1e-9)
	assert.Equal(t, 0.0, real(z))
	assert.InDelta(t, -159.1549, imag(z), 1e-4)
}

func TestParallelEach(t *testing.T) {
	swept := []complex128{-100i, -50i, -25i}

	got, err := ParallelEach(50.0, swept)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, z := range swept {
		want := Parallel(50, z)
		assert.InDelta(t, real(want), real(got[i]), 1e-12)
		assert.InDelta(t, imag(want), imag(got[i]), 1e-12)
	}
}

func TestParallelEach_MixedOperands(t *testing.T) {
	got, err := ParallelEach(100, []float64{100, 200}, complex(100, 0))
	require.NoError(t, err)

	want := []complex128{Parallel(100, 100, 100), Parallel(100, 200, 100)}
	assert.True(t, cmplxs.EqualApprox(want, got, 1e-12))
}

func TestParallelEach_AllScalars(t *testing.T) {
	got, err := ParallelEach(100.0, 100.0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 50.0, real(got[0]), 1e-12)
}

func TestParallelEach_Errors(t *testing.T) {
	tests := []struct {
		name     string
		operands []any
		check    func(t *testing.T, err error)
	}{
		{
			name:     "string operand",
			operands: []any{50.0, "50"},
			check: func(t *testing.T, err error) {
				var mismatch *TypeMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, 1, mismatch.Index)
			},
		},
		{
			name:     "slice of strings",
			operands: []any{[]string{"a"}, 50.0, 10.0},
			check: func(t *testing.T, err error) {
				var mismatch *TypeMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, 0, mismatch.Index)
			},
		},
		{
			name:     "ragged slices",
			operands: []any{[]float64{1, 2}, []complex128{1, 2, 3}},
			check: func(t *testing.T, err error) {
				var mismatch *LengthMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, 3, mismatch.Length)
				assert.Equal(t, 2, mismatch.Expected)
			},
		},
		{
			name:     "single operand",
			operands: []any{50.0},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTooFewOperands)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParallelEach(tt.operands...)
			assert.Nil(t, got)
			tt.check(t, err)
		})
	}
}

func TestMagnitudesAndPhases(t *testing.T) {
	cs := []complex128{3 + 4i, -1, 1 + 1i}

	assert.Equal(t, []float64{5, 1, math.Sqrt2}, Magnitudes(cs))

	phases := Phases(cs)
	assert.InDelta(t, math.Atan2(4, 3), phases[0], 1e-15)
	assert.InDelta(t, math.Pi, phases[1], 1e-15)
	assert.InDelta(t, math.Pi/4, phases[2], 1e-15)
}
