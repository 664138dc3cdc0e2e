package serializer

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/hengadev/errsx"
)

///////////////////////////////////////////////////////////////////////////////
// Declaration and compilation
///////////////////////////////////////////////////////////////////////////////

// Fields maps output names to their field declarations.
type Fields map[string]Field

// Spec declares a schema.
//
// Bases are merged first, in order, then Fields on top; a later
// declaration under the same name wins. Methods is the owner object
// Method fields resolve against. Getter picks the fetch strategy and
// defaults to AttrPath.
type Spec struct {
	Fields  Fields
	Bases   []*Schema
	Methods any
	Getter  GetterStrategy
}

// entry is one compiled field of the projection plan.
type entry struct {
	name     string // output key: label or declared name
	getter   Getter
	toValue  Coerce
	call     bool
	required bool
	method   MethodFunc // set for method fields instead of getter
}

// Schema is a compiled projection plan. It is immutable and safe for
// concurrent use.
type Schema struct {
	fields  Fields // merged declarations, kept for base composition
	entries []entry
}

// Compile builds the projection plan from a Spec. Field declarations are
// compiled in sorted name order so the plan, and any compile failure, is
// deterministic. Per-field problems are aggregated into one error keyed
// by field name.
func Compile(spec Spec) (*Schema, error) {
	var errs errsx.Map

	merged := make(Fields, len(spec.Fields))
	for i, base := range spec.Bases {
		if base == nil {
			errs.Set(fmt.Sprintf("bases[%d]", i), errors.New("base schema is nil"))
			continue
		}
		maps.Copy(merged, base.fields)
	}
	maps.Copy(merged, spec.Fields)

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	slices.Sort(names)

	strategy := spec.Getter
	if strategy == nil {
		strategy = AttrPath{}
	}

	entries := make([]entry, 0, len(names))
	for _, name := range names {
		e, err := compileField(name, merged[name], spec.Methods, strategy)
		if err != nil {
			errs.Set(name, err)
			continue
		}
		entries = append(entries, e)
	}
	if !errs.IsEmpty() {
		return nil, errs.AsError()
	}

	emitSchemaCompiled(context.Background(), len(entries))
	return &Schema{fields: merged, entries: entries}, nil
}

// MustCompile is Compile, panicking on error. Intended for package-level
// schema declarations.
func MustCompile(spec Spec) *Schema {
	schema, err := Compile(spec)
	if err != nil {
		panic(fmt.Sprintf("serializer: invalid schema: %v", err))
	}
	return schema
}

func compileField(name string, f Field, methods any, strategy GetterStrategy) (entry, error) {
	if f.kind == kindInvalid {
		return entry{}, ErrInvalidField
	}
	e := entry{
		name:     f.label,
		toValue:  f.toValue,
		call:     f.call,
		required: f.required,
	}
	if e.name == "" {
		e.name = name
	}

	switch f.kind {
	case kindMethod:
		methodName := f.methodName
		if methodName == "" {
			methodName = "Get" + exportName(name)
		}
		m, err := resolveMethod(methods, methodName)
		if err != nil {
			return entry{}, err
		}
		e.method = m
	case kindConst:
		e.getter = constGetter(f.constant, f.required)
	case kindNested:
		if f.sub == nil {
			return entry{}, ErrNilSchema
		}
		e.getter = strategy.Getter(sourcePath(name, f))
	default:
		e.getter = strategy.Getter(sourcePath(name, f))
	}
	return e, nil
}

func sourcePath(name string, f Field) string {
	if f.attr != "" {
		return f.attr
	}
	return name
}

// constGetter yields the constant on every fetch. A non-required constant
// that is not primitive fails here, which drops the field during
// projection.
func constGetter(constant any, required bool) Getter {
	return func(any) (any, error) {
		if !required && !isPrimitiveConst(constant) {
			return nil, fmt.Errorf("%w: non-required constant of type %T", ErrNotSerializable, constant)
		}
		return constant, nil
	}
}

// exportName turns a declared field name into its exported spelling:
// "x" becomes "X", "sub_total" becomes "SubTotal".
func exportName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(upperFirst(part))
	}
	return b.String()
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// resolveMethod binds a named method of the Methods owner. The method
// must take the object being serialized and return a value, or a value
// and an error.
func resolveMethod(owner any, name string) (MethodFunc, error) {
	if owner == nil {
		return nil, ErrNoMethodsOwner
	}
	m := reflect.ValueOf(owner).MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %q on %T", ErrMethodNotFound, name, owner)
	}
	t := m.Type()
	if t.NumIn() != 1 || t.NumOut() == 0 || t.NumOut() > 2 ||
		(t.NumOut() == 2 && t.Out(1) != errorType) {
		return nil, fmt.Errorf("%w: %q has type %s", ErrBadMethodShape, name, t)
	}
	argType := t.In(0)
	return func(obj any) (any, error) {
		var arg reflect.Value
		if obj == nil {
			arg = reflect.Zero(argType)
		} else {
			arg = reflect.ValueOf(obj)
			if !arg.Type().AssignableTo(argType) {
				return nil, fmt.Errorf("cannot pass %T to method %q of type %s", obj, name, t)
			}
		}
		results := m.Call([]reflect.Value{arg})
		if len(results) == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// Projection
///////////////////////////////////////////////////////////////////////////////

// project runs the compiled plan over one source object.
func (s *Schema) project(obj any) (map[string]any, error) {
	out := make(map[string]any, len(s.entries))
	for i := range s.entries {
		e := &s.entries[i]
		value, store, err := projectEntry(e, obj)
		if err != nil {
			return nil, err
		}
		if store {
			out[e.name] = value
		}
	}
	return out, nil
}

// projectEntry computes one output value. store is false when an optional
// entry failed softly and its key must be left out.
func projectEntry(e *entry, obj any) (value any, store bool, err error) {
	if e.method != nil {
		v, err := e.method(obj)
		if err != nil {
			return entryFailure(e, err)
		}
		return v, true, nil
	}

	v, err := e.getter(obj)
	if err != nil {
		return entryFailure(e, err)
	}
	// A nil on a non-required entry is kept as an explicit null, without
	// invoking or coercing it.
	if !e.required && isNilValue(v) {
		return nil, true, nil
	}
	if e.call {
		v, err = invoke(v)
		if err != nil {
			return entryFailure(e, err)
		}
	}
	if e.toValue != nil {
		v, err = e.toValue(v)
		if err != nil {
			return entryFailure(e, err)
		}
	}
	return v, true, nil
}

// entryFailure classifies a projection failure. A nested projection that
// already aborted propagates as is; anything else aborts a required entry
// and silently drops an optional one.
func entryFailure(e *entry, err error) (any, bool, error) {
	var hard *Error
	if errors.As(err, &hard) {
		return nil, false, err
	}
	if e.required {
		return nil, false, &Error{Field: e.name, Err: err}
	}
	return nil, false, nil
}

// invoke calls a fetched zero-argument function value, unwrapping an
// optional trailing error result.
func invoke(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrNotCallable, value)
	}
	t := rv.Type()
	if t.NumIn() != 0 || t.NumOut() == 0 || t.NumOut() > 2 ||
		(t.NumOut() == 2 && t.Out(1) != errorType) {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, t)
	}
	results := rv.Call(nil)
	if len(results) == 2 && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// isNilValue reports whether v is nil, including a typed nil pointer,
// interface, map, slice, function or channel.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

///////////////////////////////////////////////////////////////////////////////
// Bound serializers
///////////////////////////////////////////////////////////////////////////////

// Serializer binds a schema to one instance. Data is computed on first
// access and cached; a Serializer is meant for single-goroutine use,
// bind a new one per projection.
type Serializer struct {
	schema   *Schema
	instance any
	data     map[string]any
}

// Bind attaches the schema to an instance without projecting it yet.
func (s *Schema) Bind(instance any) *Serializer {
	return &Serializer{schema: s, instance: instance}
}

// Data returns the projected map. The result is cached, repeated calls
// return the same map; failures are not cached.
func (s *Serializer) Data() (map[string]any, error) {
	if s.data != nil {
		return s.data, nil
	}
	start := time.Now()
	emitProjectStart(context.Background(), len(s.schema.entries))
	data, err := s.schema.project(s.instance)
	emitProjectComplete(context.Background(), len(s.schema.entries), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	s.data = data
	return s.data, nil
}

// ListSerializer binds a schema to a slice or array of instances.
type ListSerializer struct {
	schema    *Schema
	instances any
	data      []map[string]any
}

// BindMany attaches the schema to an iterable of instances.
func (s *Schema) BindMany(instances any) *ListSerializer {
	return &ListSerializer{schema: s, instances: instances}
}

// Data projects every instance in order. The result is cached the same
// way Serializer.Data is.
func (l *ListSerializer) Data() ([]map[string]any, error) {
	if l.data != nil {
		return l.data, nil
	}
	if l.instances == nil {
		return nil, fmt.Errorf("%w: nil", ErrNotIterable)
	}
	rv := reflect.ValueOf(l.instances)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T", ErrNotIterable, l.instances)
	}

	start := time.Now()
	emitProjectStart(context.Background(), len(l.schema.entries))
	out := make([]map[string]any, rv.Len())
	var err error
	for i := 0; i < rv.Len(); i++ {
		out[i], err = l.schema.project(rv.Index(i).Interface())
		if err != nil {
			break
		}
	}
	emitProjectComplete(context.Background(), len(l.schema.entries), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	l.data = out
	return l.data, nil
}

// Serialize projects one object through the schema.
func (s *Schema) Serialize(obj any) (map[string]any, error) {
	return s.Bind(obj).Data()
}

// SerializeMany projects a slice or array of objects through the schema.
func (s *Schema) SerializeMany(objs any) ([]map[string]any, error) {
	return s.BindMany(objs).Data()
}
