package models

import (
	"encoding/json"
	"math"
)

// finite maps infinities and NaN to nil so they encode as null
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// MarshalJSON encodes an absent series capacitor as null
func (p AmplifierParameters) MarshalJSON() ([]byte, error) {
	type plain AmplifierParameters
	return json.Marshal(struct {
		plain
		CSeries *float64 `json:"c_series"`
	}{plain(p), finite(p.CSeries)})
}

// MarshalJSON splits Z_ext into real and imaginary parts
func (e DividerEstimate) MarshalJSON() ([]byte, error) {
	type plain DividerEstimate
	return json.Marshal(struct {
		plain
		ZExt    [2]float64 `json:"z_ext"`
		CSeries *float64   `json:"c_series"`
	}{plain(e), [2]float64{real(e.ZExt), imag(e.ZExt)}, finite(e.CSeries)})
}
