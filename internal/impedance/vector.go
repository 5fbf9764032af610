package impedance

import "errors"

// ErrTooFewOperands is returned when fewer than two impedances are combined
var ErrTooFewOperands = errors.New("parallel combination needs at least two impedances")

// ParallelEach combines operands element-wise. Each operand may be an int,
// float64, complex128, []float64 or []complex128; scalars are broadcast to
// the length of the slice operands. At least two operands are required.
func ParallelEach(operands ...any) ([]complex128, error) {
	if len(operands) < 2 {
		return nil, ErrTooFewOperands
	}

	n := 1
	isSlice := false
	for i, op := range operands {
		l, slice, err := shape(i, op)
		if err != nil {
			return nil, err
		}
		if !slice {
			continue
		}
		if isSlice && l != n {
			return nil, &LengthMismatchError{Index: i, Length: l, Expected: n}
		}
		n, isSlice = l, true
	}

	sum := make([]complex128, n)
	for _, op := range operands {
		for k := range sum {
			sum[k] += 1 / at(op, k)
		}
	}
	for k := range sum {
		sum[k] = 1 / sum[k]
	}
	return sum, nil
}

// Magnitudes applies Magnitude element-wise
func Magnitudes(cs []complex128) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = Magnitude(c)
	}
	return out
}

// Phases applies Phase element-wise
func Phases(cs []complex128) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = Phase(c)
	}
	return out
}

func shape(i int, op any) (length int, slice bool, err error) {
	switch v := op.(type) {
	case int, float64, complex128:
		return 1, false, nil
	case []float64:
		return len(v), true, nil
	case []complex128:
		return len(v), true, nil
	default:
		return 0, false, &TypeMismatchError{Index: i, Got: op}
	}
}

func at(op any, k int) complex128 {
	switch v := op.(type) {
	case int:
		return complex(float64(v), 0)
	case float64:
		return complex(v, 0)
	case complex128:
		return v
	case []float64:
		return complex(v[k], 0)
	case []complex128:
		return v[k]
	}
	return 0
}
