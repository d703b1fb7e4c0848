package validation

// Check validates draft with s and merges in earlier decode failures, which win on conflict.
func Check(s Schema, draft interface{}, decodeErrs Errors) Errors {
	return Errors{}.Merge(decodeErrs).Merge(s.Validate(draft))
}

// BindJSON decodes a JSON object body into a draft and validates it. err is set only when
// the body is not a JSON object; field problems are returned in Errors.
func BindJSON[D any](body []byte, decode func(Fields) (D, Errors), s Schema) (D, Errors, error) {
	var zero D
	f, err := ParseJSON(body)
	if err != nil {
		return zero, nil, err
	}
	d, decodeErrs := decode(f)
	return d, Check(s, d, decodeErrs), nil
}
