package validation

import (
	"errors"
	"sort"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation"
)

// Errors maps a field name to a human-readable message. An empty map means valid.
type Errors map[string]string

// ErrUnknownSchema is returned when no schema is registered for an entity.
var ErrUnknownSchema = errors.New("validation: unknown schema")

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Merge adds the entries of other whose field is not already in e.
func (e Errors) Merge(other Errors) Errors {
	if e == nil {
		e = Errors{}
	}
	for k, v := range other {
		if _, ok := e[k]; !ok {
			e[k] = v
		}
	}
	return e
}

// Details converts e for the error envelope's details object.
func (e Errors) Details() map[string]interface{} {
	out := make(map[string]interface{}, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func fromOzzo(err error) Errors {
	out := Errors{}
	if err == nil {
		return out
	}
	var fields ozzo.Errors
	if errors.As(err, &fields) {
		for k, fe := range fields {
			out[k] = fe.Error()
		}
		return out
	}
	out["_"] = err.Error()
	return out
}

func requiredMessage(field string) string {
	return field + " is a required field"
}

func integerMessage(field string) string {
	return field + " must be an integer"
}
