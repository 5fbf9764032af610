package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopology_String(t *testing.T) {
	assert.Equal(t, "Cascode", Cascode.String())
	assert.Equal(t, "Common-Emitter", CommonEmitter.String())
	assert.Equal(t, "Common-Emitter", Topology("").String())
}

func TestAmplifierParameters_MarshalJSON(t *testing.T) {
	p := AmplifierParameters{Vcc: 3.3, CSeries: math.Inf(1)}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["c_series"])
	assert.Equal(t, 3.3, decoded["vcc"])

	p.CSeries = 10e-12
	data, err = json.Marshal(p)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 10e-12, decoded["c_series"])
}

func TestDividerEstimate_MarshalJSON(t *testing.T) {
	est := DividerEstimate{
		Frequency: 312.5e6,
		ZExt:      complex(49.2, 10.4),
		CSeries:   math.Inf(1),
	}

	data, err := json.Marshal(est)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{49.2, 10.4}, decoded["z_ext"])
	assert.Nil(t, decoded["c_series"])
	assert.Equal(t, 312.5e6, decoded["frequency"])
}

func TestFrequencyResponse_Points(t *testing.T) {
	resp := &FrequencyResponse{
		Frequencies: []float64{1, 2},
		MagnitudeDB: []float64{-1, -2},
		PhaseDeg:    []float64{-10, -20},
	}

	points := resp.Points()
	require.Len(t, points, 2)
	assert.Equal(t, FrequencyPoint{Frequency: 2, Magnitude: -2, Phase: -20}, points[1])

	resp.PhaseDeg = resp.PhaseDeg[:1]
	assert.Len(t, resp.Points(), 1)
	assert.Empty(t, (&FrequencyResponse{}).Points())
}

func TestBodeData_Columns(t *testing.T) {
	data := &BodeData{Points: []FrequencyPoint{{Frequency: 1, Magnitude: 2, Phase: -3}}}
	assert.Equal(t, []float64{1}, data.Frequencies())
	assert.Equal(t, []float64{2}, data.Gains())
	assert.Equal(t, []float64{-3}, data.Phases())
}
