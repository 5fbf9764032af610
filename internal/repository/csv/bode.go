// Package csv reads circuit-simulator exports of an amplifier Bode plot.
//
// Each row holds frequency in Hz, gain in dB and phase in degrees.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/dvirhilu/NMR-Preamplifier/internal/repository"
	"github.com/dvirhilu/NMR-Preamplifier/pkg/models"
)

// FieldsPerRow is the number of columns in a Bode export
const FieldsPerRow = 3

var (
	// ErrFieldCount is wrapped when a row does not have FieldsPerRow fields
	ErrFieldCount = errors.New("wrong number of fields")
	// ErrNoRows is wrapped when the input holds no data
	ErrNoRows = errors.New("no data rows")
	// ErrNotFinite is wrapped when a field parses to NaN or an infinity
	ErrNotFinite = errors.New("value is not finite")
)

// MalformedInputError reports the first row that could not be parsed.
// Line is 1-based; Field is 1-based and zero when the whole row is at fault.
type MalformedInputError struct {
	Line  int
	Field int
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Line == 0:
		return fmt.Sprintf("malformed bode input: %v", e.Err)
	case e.Field == 0:
		return fmt.Sprintf("malformed bode input at line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("malformed bode input at line %d, field %d (%q): %v", e.Line, e.Field, e.Value, e.Err)
	}
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// NormalizePhase maps simulator phase output into (-360, 0] degrees
func NormalizePhase(deg float64) float64 {
	if deg < 0 {
		return deg
	}
	return deg - 360
}

// ParseBode reads every row of r. Blank lines are skipped; any other
// irregularity aborts the load.
func ParseBode(r io.Reader) ([]models.FrequencyPoint, error) {
	reader := stdcsv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var points []models.FrequencyPoint
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *stdcsv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &MalformedInputError{Line: parseErr.Line, Err: parseErr.Err}
			}
			return nil, fmt.Errorf("reading bode input: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if len(record) != FieldsPerRow {
			return nil, &MalformedInputError{
				Line: line,
				Err:  fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(record), FieldsPerRow),
			}
		}

		var values [FieldsPerRow]float64
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
				err = ErrNotFinite
			}
			if err != nil {
				return nil, &MalformedInputError{Line: line, Field: i + 1, Value: field, Err: err}
			}
			values[i] = v
		}

		points = append(points, models.FrequencyPoint{
			Frequency: values[0],
			Magnitude: values[1],
			Phase:     NormalizePhase(values[2]),
		})
	}

	if len(points) == 0 {
		return nil, &MalformedInputError{Err: ErrNoRows}
	}
	return points, nil
}

// Repository implements SimulationRepository over CSV files
type Repository struct {
	fs afero.Fs
}

// NewRepository creates a CSV-backed simulation repository on fs
func NewRepository(fs afero.Fs) repository.SimulationRepository {
	return &Repository{fs: fs}
}

// LoadBode reads the Bode export at path
func (r *Repository) LoadBode(ctx context.Context, path string) (*models.BodeData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := r.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bode file: %w", err)
	}
	defer f.Close()

	points, err := ParseBode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return &models.BodeData{Source: path, Points: points}, nil
}
