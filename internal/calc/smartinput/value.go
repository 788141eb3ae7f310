package smartinput

import (
	"bytes"
	"encoding/json"
)

// Number is a request field that accepts a JSON number or a free-text string.
// Strings go through Parse; numbers are taken as-is after the same clamping.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	v, err := decode(data, false)
	if err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// Percent is a Number entered as a percentage. "0.4" and "40" both read as 40.
type Percent float64

func (p *Percent) UnmarshalJSON(data []byte) error {
	v, err := decode(data, true)
	if err != nil {
		return err
	}
	*p = Percent(v)
	return nil
}

// Fraction returns the percentage as a fraction (40 -> 0.4).
func (p Percent) Fraction() float64 { return float64(p) / 100 }

func decode(data []byte, percent bool) (float64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		return Parse(s, percent), nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, err
	}
	return Normalize(f, percent), nil
}
