package deserializer

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

///////////////////////////////////////////////////////////////////////////////
// Field constructors
///////////////////////////////////////////////////////////////////////////////

// Int accepts integers, whole-valued floats and numeric strings, cleaning
// them to int64.
func Int(opts ...Option) Field {
	return newField(kindInt, opts...)
}

// Float accepts numbers and numeric strings, cleaning them to float64.
func Float(opts ...Option) Field {
	return newField(kindFloat, opts...)
}

// Text accepts strings and stringifiable scalars, cleaning them to
// string.
func Text(opts ...Option) Field {
	return newField(kindText, opts...)
}

// Bool accepts booleans, 0 and 1, and the strings "true", "false", "1"
// and "0" in any case, cleaning them to bool.
func Bool(opts ...Option) Field {
	return newField(kindBool, opts...)
}

// UUID accepts canonical and hyphenless UUID strings, cleaning them to
// uuid.UUID.
func UUID(opts ...Option) Field {
	return newField(kindUUID, opts...)
}

// Nested validates the raw value against a sub-schema, contributing its
// whole error tree on failure. A nil sub-schema is a compile error.
func Nested(sub *Schema, opts ...Option) Field {
	f := newField(kindNested, opts...)
	f.sub = sub
	return f
}

///////////////////////////////////////////////////////////////////////////////
// Coercions
///////////////////////////////////////////////////////////////////////////////

func coerceValue(kind fieldKind, raw any) (any, *ValidationError) {
	switch kind {
	case kindInt:
		return coerceInt(raw)
	case kindFloat:
		return coerceFloat(raw)
	case kindText:
		return coerceText(raw)
	case kindBool:
		return coerceBool(raw)
	case kindUUID:
		return coerceUUID(raw)
	}
	return nil, newValidationError(msgNotObject)
}

func coerceInt(raw any) (any, *ValidationError) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, newValidationError(msgInvalidInt)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f ||
			f >= math.MaxInt64 || f <= math.MinInt64 {
			return nil, newValidationError(msgInvalidInt)
		}
		return int64(f), nil
	case reflect.String:
		n, ok := parseIntString(rv.String())
		if !ok {
			return nil, newValidationError(msgInvalidInt)
		}
		return n, nil
	}
	return nil, newValidationError(msgInvalidInt)
}

// parseIntString parses a base-10 integer, tolerating surrounding spaces
// and a trailing ".0" style fraction, so "5.00" cleans to 5.
func parseIntString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func coerceFloat(raw any) (any, *ValidationError) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, newValidationError(msgInvalidFloat)
		}
		return f, nil
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, newValidationError(msgInvalidFloat)
		}
		return f, nil
	}
	return nil, newValidationError(msgInvalidFloat)
}

func coerceText(raw any) (any, *ValidationError) {
	if b, ok := raw.([]byte); ok {
		return string(b), nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	}
	return nil, newValidationError(msgInvalidText)
}

func coerceBool(raw any) (any, *ValidationError) {
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intishBool(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > 1 {
			return nil, newValidationError(msgInvalidBool)
		}
		return rv.Uint() == 1, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != 0 && f != 1 {
			return nil, newValidationError(msgInvalidBool)
		}
		return f == 1, nil
	case reflect.String:
		switch strings.ToLower(strings.TrimSpace(rv.String())) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return nil, newValidationError(msgInvalidBool)
}

func intishBool(n int64) (any, *ValidationError) {
	if n != 0 && n != 1 {
		return nil, newValidationError(msgInvalidBool)
	}
	return n == 1, nil
}

func coerceUUID(raw any) (any, *ValidationError) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, newValidationError(msgInvalidUUID)
		}
		return id, nil
	}
	return nil, newValidationError(msgInvalidUUID)
}
