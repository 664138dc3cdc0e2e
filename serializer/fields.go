package serializer

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

///////////////////////////////////////////////////////////////////////////////
// Field constructors
///////////////////////////////////////////////////////////////////////////////

// Raw projects the fetched value untouched.
func Raw(opts ...Option) Field {
	return newField(kindRaw, nil, opts...)
}

// Text renders scalars as strings. Values implementing fmt.Stringer use
// their String method; composite values fail.
func Text(opts ...Option) Field {
	return newField(kindText, textValue, opts...)
}

// Int converts integers, truncates floats toward zero and parses numeric
// strings, as a dynamic int() conversion would.
func Int(opts ...Option) Field {
	return newField(kindInt, intValue, opts...)
}

// Float converts numbers and numeric strings to float64.
func Float(opts ...Option) Field {
	return newField(kindFloat, floatValue, opts...)
}

// Bool reduces the value to its truthiness: nil, zero numbers and empty
// strings, slices and maps are false, everything else is true. It never
// fails.
func Bool(opts ...Option) Field {
	return newField(kindBool, boolValue, opts...)
}

// UUID renders uuid.UUID values, canonical or hyphenless UUID strings and
// raw 16-byte values as the canonical string form.
func UUID(opts ...Option) Field {
	return newField(kindUUID, uuidValue, opts...)
}

// Const injects a fixed value into the output, ignoring the source object.
// The constant must be primitive: numbers, strings, booleans, nil, or
// slices and string-keyed maps of those. A required Const with a
// non-primitive constant panics here; an optional one fails during
// projection and is dropped.
func Const(constant any, opts ...Option) Field {
	f := newField(kindConst, nil, opts...)
	f.constant = constant
	if f.required && !isPrimitiveConst(constant) {
		panic(fmt.Sprintf(
			"serializer: only primitive types are accepted in Const() (numbers, strings, booleans, nil) "+
				"and slices or string-keyed maps of primitive types; given constant of type %T", constant))
	}
	return f
}

// Method projects the result of a schema method named Get<FieldName>,
// resolved on the Spec's Methods owner at compile time.
func Method(opts ...Option) Field {
	return newField(kindMethod, nil, opts...)
}

// MethodName is Method with an explicit method name.
func MethodName(name string, opts ...Option) Field {
	f := newField(kindMethod, nil, opts...)
	f.methodName = name
	return f
}

// List applies the element field's coercion to every element of an
// iterable value instead of a single one. The element must be a coercing
// scalar field; List panics otherwise.
func List(elem Field, opts ...Option) Field {
	if elem.kind == kindNested {
		panic("serializer: cannot call List() with a nested schema field; the Many() option is available for Nested()")
	}
	if elem.toValue == nil {
		panic(fmt.Sprintf(
			"serializer: List() can only be called with coercing scalar fields; given field type: %s",
			kindName(elem.kind)))
	}
	f := Field{
		kind:     kindList,
		attr:     elem.attr,
		label:    elem.label,
		call:     elem.call,
		required: elem.required,
		toValue:  listValue(elem.toValue),
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Nested projects the value through a sub-schema, producing a nested map.
// With Many, the value is an iterable of sub-objects and the output is a
// list of maps.
func Nested(sub *Schema, opts ...Option) Field {
	f := newField(kindNested, nil, opts...)
	f.sub = sub
	if sub != nil {
		f.toValue = nestedValue(sub, f.many)
	}
	return f
}

///////////////////////////////////////////////////////////////////////////////
// Coercions
///////////////////////////////////////////////////////////////////////////////

func textValue(value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil as text", ErrNotSerializable)
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	rv := reflect.ValueOf(value)
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
	return nil, fmt.Errorf("%w: %T as text", ErrNotSerializable, value)
}

func intValue(value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil as integer", ErrNotSerializable)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows as integer", ErrNotSerializable, u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
			return nil, fmt.Errorf("%w: %v as integer", ErrNotSerializable, f)
		}
		return int64(math.Trunc(f)), nil
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as integer", ErrNotSerializable, rv.String())
		}
		return n, nil
	}
	return nil, fmt.Errorf("%w: %T as integer", ErrNotSerializable, value)
}

func floatValue(value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil as float", ErrNotSerializable)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as float", ErrNotSerializable, rv.String())
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: %T as float", ErrNotSerializable, value)
}

func boolValue(value any) (any, error) {
	return isTruthy(value), nil
}

func isTruthy(value any) bool {
	if value == nil {
		return false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return isTruthy(rv.Elem().Interface())
	}
	return true
}

func uuidValue(value any) (any, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as UUID", ErrNotSerializable, v)
		}
		return id.String(), nil
	case [16]byte:
		return uuid.UUID(v).String(), nil
	case []byte:
		id, err := uuid.FromBytes(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %d bytes as UUID", ErrNotSerializable, len(v))
		}
		return id.String(), nil
	}
	return nil, fmt.Errorf("%w: %T as UUID", ErrNotSerializable, value)
}

// listValue wraps an element coercion so it applies to every element of a
// slice or array value.
func listValue(elem Coerce) Coerce {
	return func(value any) (any, error) {
		if value == nil {
			return nil, fmt.Errorf("%w: nil as list", ErrNotSerializable)
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("%w: %T as list", ErrNotIterable, value)
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := elem(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}
}

// nestedValue projects a value, or with many an iterable of values,
// through the sub-schema.
func nestedValue(sub *Schema, many bool) Coerce {
	return func(value any) (any, error) {
		if !many {
			return sub.Bind(value).Data()
		}
		if value == nil {
			return nil, fmt.Errorf("%w: nil as list", ErrNotSerializable)
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("%w: %T as list", ErrNotIterable, value)
		}
		out := make([]map[string]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			data, err := sub.Bind(rv.Index(i).Interface()).Data()
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = data
		}
		return out, nil
	}
}

// isPrimitiveConst reports whether a constant is made only of numbers,
// strings, booleans and nil, possibly inside slices, arrays and
// string-keyed maps.
func isPrimitiveConst(constant any) bool {
	if constant == nil {
		return true
	}
	rv := reflect.ValueOf(constant)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !isPrimitiveConst(rv.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if !isPrimitiveConst(iter.Value().Interface()) {
				return false
			}
		}
		return true
	}
	return false
}
