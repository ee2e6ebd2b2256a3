package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Number is a model-supplied numeric field read leniently. Numbers,
// numeric strings and booleans are accepted; anything else decodes as an
// invalid Number instead of failing the whole reply. Overflowing literals
// and "Infinity" decode as infinite values, which callers clamp.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a valid Number holding v.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = parseNumber(b)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Int returns the value truncated toward zero, or 0 when invalid or
// infinite.
func (n Number) Int() int {
	if !n.Valid || math.IsInf(n.Value, 0) {
		return 0
	}
	return int(math.Trunc(n.Value))
}

func parseNumber(b []byte) Number {
	s := bytes.TrimSpace(b)
	if len(s) == 0 {
		return Number{}
	}

	switch s[0] {
	case 'n', '{', '[':
		return Number{}
	case 't':
		return Num(1)
	case 'f':
		return Num(0)
	case '"':
		var str string
		if err := json.Unmarshal(s, &str); err != nil {
			return Number{}
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return Num(0)
		}
		switch str {
		case "Infinity", "+Infinity":
			return Num(math.Inf(1))
		case "-Infinity":
			return Num(math.Inf(-1))
		}
		if strings.ContainsAny(str, "iInN") {
			// Inf, NaN and their spellings other than Infinity
			return Number{}
		}
		return number(strconv.ParseFloat(str, 64))
	default:
		return number(strconv.ParseFloat(string(s), 64))
	}
}

// number keeps out-of-range results: ParseFloat reports ErrRange with ±Inf
// on overflow and ±0 on underflow.
func number(f float64, err error) Number {
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Number{}
	}
	if math.IsNaN(f) {
		return Number{}
	}
	return Num(f)
}
