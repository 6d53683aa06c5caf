package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Money is an amount in the smallest currency unit (VND has no minor unit).
type Money int64

// UnmarshalJSON accepts integral or fractional JSON numbers, rounding half away from zero.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*m = Money(math.Round(f))
	return nil
}

func (m Money) String() string {
	return strconv.FormatInt(int64(m), 10)
}
