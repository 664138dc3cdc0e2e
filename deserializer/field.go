package deserializer

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode/utf8"
)

type fieldKind int

const (
	kindInvalid fieldKind = iota
	kindInt
	kindFloat
	kindText
	kindBool
	kindUUID
	kindNested
)

func kindName(kind fieldKind) string {
	switch kind {
	case kindInt:
		return "Int"
	case kindFloat:
		return "Float"
	case kindText:
		return "Text"
	case kindBool:
		return "Bool"
	case kindUUID:
		return "UUID"
	case kindNested:
		return "Nested"
	}
	return "invalid"
}

// Validator checks a coerced value and returns a failure message, or ""
// when the value passes.
type Validator func(value any) string

// Field declares one entry of a schema: the expected type of the raw
// value and the validators that run after coercion. Fields are immutable
// once constructed.
type Field struct {
	kind       fieldKind
	required   bool
	validators []Validator
	sub        *Schema
}

// Option adjusts a Field declaration at construction time.
type Option func(*Field)

// Optional marks the field droppable: an absent, empty or invalid raw
// value omits the field from the cleaned data instead of recording an
// error.
func Optional() Option {
	return func(f *Field) { f.required = false }
}

// MinValue rejects numbers below limit. Panics when applied to a field
// that is not Int or Float.
func MinValue(limit float64) Option {
	return func(f *Field) {
		requireNumeric(f, "MinValue")
		f.validators = append(f.validators, func(value any) string {
			if numericValue(value) < limit {
				return fmt.Sprintf(msgMinValue, formatLimit(limit))
			}
			return ""
		})
	}
}

// MaxValue rejects numbers above limit. Panics when applied to a field
// that is not Int or Float.
func MaxValue(limit float64) Option {
	return func(f *Field) {
		requireNumeric(f, "MaxValue")
		f.validators = append(f.validators, func(value any) string {
			if numericValue(value) > limit {
				return fmt.Sprintf(msgMaxValue, formatLimit(limit))
			}
			return ""
		})
	}
}

// MinLength rejects strings shorter than n characters. Panics when
// applied to a field that is not Text.
func MinLength(n int) Option {
	return func(f *Field) {
		requireText(f, "MinLength")
		f.validators = append(f.validators, func(value any) string {
			s, _ := value.(string)
			if count := utf8.RuneCountInString(s); count < n {
				return fmt.Sprintf(msgMinLength, n, count)
			}
			return ""
		})
	}
}

// MaxLength rejects strings longer than n characters. Panics when
// applied to a field that is not Text.
func MaxLength(n int) Option {
	return func(f *Field) {
		requireText(f, "MaxLength")
		f.validators = append(f.validators, func(value any) string {
			s, _ := value.(string)
			if count := utf8.RuneCountInString(s); count > n {
				return fmt.Sprintf(msgMaxLength, n, count)
			}
			return ""
		})
	}
}

// Validate appends a custom validator to the field.
func Validate(v Validator) Option {
	return func(f *Field) { f.validators = append(f.validators, v) }
}

func requireNumeric(f *Field, option string) {
	if f.kind != kindInt && f.kind != kindFloat {
		panic(fmt.Sprintf("deserializer: %s() requires an Int or Float field, given %s", option, kindName(f.kind)))
	}
}

func requireText(f *Field, option string) {
	if f.kind != kindText {
		panic(fmt.Sprintf("deserializer: %s() requires a Text field, given %s", option, kindName(f.kind)))
	}
}

func numericValue(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// formatLimit renders a numeric limit without a trailing ".0" for whole
// numbers.
func formatLimit(limit float64) string {
	return strconv.FormatFloat(limit, 'f', -1, 64)
}

func newField(kind fieldKind, opts ...Option) Field {
	f := Field{kind: kind, required: true}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

///////////////////////////////////////////////////////////////////////////////
// Cleaning
///////////////////////////////////////////////////////////////////////////////

// clean runs one field over its raw value. store reports whether the
// cleaned value belongs in the output; a nil error with store false means
// the optional field is omitted.
func (f Field) clean(raw any) (value any, store bool, verr *ValidationError) {
	if f.kind == kindNested {
		return f.cleanNested(raw)
	}
	if isEmptyValue(raw) {
		if f.required {
			return nil, false, newValidationError(msgRequired)
		}
		return nil, false, nil
	}
	value, verr = coerceValue(f.kind, raw)
	if verr != nil {
		return nil, false, verr
	}
	var msgs []string
	for _, validate := range f.validators {
		if msg := validate(value); msg != "" {
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) > 0 {
		return nil, false, &ValidationError{Messages: msgs}
	}
	return value, true, nil
}

// cleanNested validates a composite raw value against the sub-schema.
// An empty string on a non-required field resolves verbatim without
// structural validation; an absent value omits the field.
func (f Field) cleanNested(raw any) (any, bool, *ValidationError) {
	if raw == nil {
		if f.required {
			return nil, false, newValidationError(msgRequired)
		}
		return nil, false, nil
	}
	if s, ok := raw.(string); ok && s == "" {
		if f.required {
			return nil, false, newValidationError(msgRequired)
		}
		return s, true, nil
	}
	if _, ok := stringMap(raw); !ok {
		return nil, false, newValidationError(msgNotObject)
	}
	bound := f.sub.Bind(raw)
	if !bound.IsValid() {
		return nil, false, &ValidationError{Tree: bound.Errors()}
	}
	return bound.Data(), true, nil
}

// isEmptyValue reports whether a raw value is one of the empty sentinels:
// absent (nil) or the empty string.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// stringMap views a value as a string-keyed map. Maps with other value
// types are converted.
func stringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
