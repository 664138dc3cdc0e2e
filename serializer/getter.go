package serializer

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

///////////////////////////////////////////////////////////////////////////////
// Getter strategies
///////////////////////////////////////////////////////////////////////////////

// GetterStrategy builds the Getter a compiled field uses to fetch its raw
// value from the source object.
type GetterStrategy interface {
	Getter(path string) Getter
}

// AttrPath is the default strategy. It walks a dotted path segment by
// segment over struct fields, string-keyed maps and methods. Lowercase
// segments fall back to their exported spelling, so Attr("name") finds the
// field Name. Methods are fetched as bound functions without being
// invoked; the Call option invokes the final value.
type AttrPath struct{}

// Getter implements GetterStrategy.
func (AttrPath) Getter(path string) Getter {
	segments := strings.Split(path, ".")
	return func(obj any) (any, error) {
		value := obj
		for _, segment := range segments {
			v, err := attrOf(value, segment)
			if err != nil {
				return nil, err
			}
			value = v
		}
		return value, nil
	}
}

// MapKey fetches the whole path as a single key of a string-keyed map.
// Use it for schemas projecting map values instead of structs.
type MapKey struct{}

// Getter implements GetterStrategy.
func (MapKey) Getter(path string) Getter {
	return func(obj any) (any, error) {
		if obj == nil {
			return nil, fmt.Errorf("cannot read key %q from nil", path)
		}
		if m, ok := obj.(map[string]any); ok {
			v, ok := m[path]
			if !ok {
				return nil, fmt.Errorf("key %q not found", path)
			}
			return v, nil
		}
		rv := reflect.ValueOf(obj)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot read key %q from %T", path, obj)
		}
		v := rv.MapIndex(reflect.ValueOf(path).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, fmt.Errorf("key %q not found", path)
		}
		return v.Interface(), nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// Attribute access
///////////////////////////////////////////////////////////////////////////////

// attrOf reads one path segment from obj: a method bound to the value, a
// struct field or a map entry, in that order. Pointers and interfaces are
// dereferenced along the way; methods are looked up before each
// dereference so pointer receivers stay reachable.
func attrOf(obj any, name string) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("cannot read %q from nil", name)
	}
	rv := reflect.ValueOf(obj)
	for {
		for _, candidate := range nameCandidates(name) {
			if m := rv.MethodByName(candidate); m.IsValid() {
				return m.Interface(), nil
			}
		}
		if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
			if rv.IsNil() {
				return nil, fmt.Errorf("cannot read %q from nil %s", name, rv.Type())
			}
			rv = rv.Elem()
			continue
		}
		break
	}

	switch rv.Kind() {
	case reflect.Struct:
		for _, candidate := range nameCandidates(name) {
			f := rv.FieldByName(candidate)
			if f.IsValid() && f.CanInterface() {
				return f.Interface(), nil
			}
		}
		// Exported fields also match case-insensitively, so "id" finds ID.
		if f := rv.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) }); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
		return nil, fmt.Errorf("%s has no attribute %q", rv.Type(), name)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%s is not indexable by %q", rv.Type(), name)
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, fmt.Errorf("key %q not found in %s", name, rv.Type())
		}
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("cannot read %q from %s", name, rv.Type())
}

// nameCandidates returns the segment as declared plus, when it starts
// lowercase, its exported spelling.
func nameCandidates(name string) []string {
	exported := upperFirst(name)
	if exported == name {
		return []string{name}
	}
	return []string{name, exported}
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
