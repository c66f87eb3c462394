package common

import (
	"bytes"
	"math"
	"strconv"
)

// Number is a float64 whose JSON decoding never fails. Malformed values,
// numeric strings, null, and non-finite results all decode to their numeric
// value when one exists and to zero otherwise. This is the ingestion policy
// for monetary fields: garbage presentation becomes zero, while genuine
// business rule violations are rejected by validation afterwards.
type Number float64

// UnmarshalJSON implements json.Unmarshaler with the coercion policy above.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(coerceFloat(data))
	return nil
}

// Float64 returns the underlying value.
func (n Number) Float64() float64 {
	return float64(n)
}

func coerceFloat(data []byte) float64 {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(string(raw))
		if err != nil {
			return 0
		}
		raw = []byte(unquoted)
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
