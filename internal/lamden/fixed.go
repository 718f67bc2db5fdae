package lamden

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Fixed is a contracting fixed-point decimal. It marshals to the
// {"__fixed__": "<value>"} wire form the contracting runtime expects for
// non-integer kwargs.
type Fixed string

func (f Fixed) MarshalJSON() ([]byte, error) {
	v := strings.TrimSpace(string(f))
	if v == "" {
		v = "0"
	}
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return nil, fmt.Errorf("invalid fixed value %q", string(f))
	}
	return json.Marshal(map[string]string{"__fixed__": v})
}

func (f *Fixed) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Value string `json:"__fixed__"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Value != "" {
		*f = Fixed(wrapped.Value)
		return nil
	}
	var plain json.Number
	if err := json.Unmarshal(data, &plain); err != nil {
		return fmt.Errorf("invalid fixed encoding: %s", string(data))
	}
	*f = Fixed(plain.String())
	return nil
}

func (f Fixed) Float64() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return v
}

// FixedFromFloat renders f without exponent notation and without a trailing
// ".0" for whole values, matching how amounts are entered in chat commands.
func FixedFromFloat(v float64) Fixed {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return Fixed(s)
}

// ParseVariableValue interprets a contract storage value as a float. Absent,
// null, and non-numeric values resolve to 0 — a missing price or allowance is
// an ordinary state, never an error.
func ParseVariableValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0
	}

	var fixed struct {
		Value string `json:"__fixed__"`
	}
	if err := json.Unmarshal(raw, &fixed); err == nil && fixed.Value != "" {
		v, err := strconv.ParseFloat(fixed.Value, 64)
		if err != nil {
			return 0
		}
		return v
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}
