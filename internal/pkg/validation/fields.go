package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fields is raw submitted input keyed by field name: form values (strings)
// or a decoded JSON object (json.Number for numbers).
type Fields map[string]interface{}

// ParseJSON decodes a JSON object body into Fields, keeping numbers as json.Number.
func ParseJSON(body []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var f Fields
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if f == nil {
		f = Fields{}
	}
	return f, nil
}

// String returns the value of key as a string ("" when missing or null).
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// NullableString returns nil for a missing, null or empty value.
func (f Fields) NullableString(key string) *string {
	s := strings.TrimSpace(f.String(key))
	if s == "" {
		return nil
	}
	return &s
}

// Int returns the integer value of key, or nil when missing or empty. A value that
// is present but not an integer is recorded in errs and yields nil.
func (f Fields) Int(key string, errs Errors) *int {
	raw, ok := f[key]
	if !ok || raw == nil {
		return nil
	}
	var n int
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		i, ok := parseInt(s)
		if !ok {
			errs[key] = integerMessage(key)
			return nil
		}
		n = i
	case json.Number:
		i, ok := parseInt(v.String())
		if !ok {
			errs[key] = integerMessage(key)
			return nil
		}
		n = i
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			errs[key] = integerMessage(key)
			return nil
		}
		n = int(v)
	case int:
		n = v
	default:
		errs[key] = integerMessage(key)
		return nil
	}
	return &n
}

// parseInt accepts integral decimals ("140", "140.0") and rejects fractions and NaN.
func parseInt(s string) (int, bool) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
