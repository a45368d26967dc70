// ABOUTME: Timestamp normalization for heterogeneous Atlas time representations
// ABOUTME: Accepts epoch seconds, fractional ISO-8601 strings, or nothing at all
package atlas

import (
	"encoding/json"
	"time"
)

// TimeLayout is the one ISO-8601 shape the API emits for string timestamps.
const TimeLayout = "2006-01-02T15:04:05.999999999Z"

// Normalize converts an upstream timestamp value to a canonical instant.
// Integers are Unix epoch seconds (UTC), strings are parsed against
// TimeLayout, and anything empty or unrecognized degrades to nil rather
// than failing the record.
func Normalize(v any) *time.Time {
	switch value := v.(type) {
	case time.Time:
		return &value
	case *time.Time:
		return value
	case int:
		t := time.Unix(int64(value), 0).UTC()
		return &t
	case int64:
		t := time.Unix(value, 0).UTC()
		return &t
	case float64:
		// JSON numbers decode as float64; the API sends whole epoch seconds.
		t := time.Unix(int64(value), 0).UTC()
		return &t
	case json.Number:
		if n, err := value.Int64(); err == nil {
			t := time.Unix(n, 0).UTC()
			return &t
		}
		return nil
	case string:
		if value == "" {
			return nil
		}
		t, err := time.Parse(TimeLayout, value)
		if err != nil {
			return nil
		}
		return &t
	default:
		return nil
	}
}

// Timestamp decodes an Atlas timestamp field, tolerating epoch seconds,
// ISO strings, null, and junk. Unparseable values become null.
type Timestamp struct {
	Time *time.Time
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		ts.Time = nil
		return nil
	}
	ts.Time = Normalize(raw)
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.UTC().Format(TimeLayout))
}
