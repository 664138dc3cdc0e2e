package deserializer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hengadev/errsx"
)

///////////////////////////////////////////////////////////////////////////////
// Declaration and compilation
///////////////////////////////////////////////////////////////////////////////

// Fields maps payload names to their field declarations.
type Fields map[string]Field

// PostCleanFunc post-processes a cleaned value. Returning an error
// records a validation failure for the field; the value cleaned before
// the hook stays in the output.
type PostCleanFunc func(value any) (any, error)

// Spec declares a schema.
//
// Bases are merged first, in order, then Fields on top; a later
// declaration under the same name wins, and hooks merge the same way.
// PostClean hooks must target declared fields.
type Spec struct {
	Fields    Fields
	Bases     []*Schema
	PostClean map[string]PostCleanFunc
}

// entry is one compiled field of the validation plan.
type entry struct {
	name      string
	field     Field
	postClean PostCleanFunc
}

// Schema is a compiled validation plan. It is immutable and safe for
// concurrent use.
type Schema struct {
	fields  Fields
	hooks   map[string]PostCleanFunc
	entries []entry
	allPass bool
}

// Compile builds the validation plan from a Spec. Fields are compiled in
// sorted name order; per-field problems are aggregated into one error
// keyed by field name.
func Compile(spec Spec) (*Schema, error) {
	var errs errsx.Map

	merged := make(Fields, len(spec.Fields))
	hooks := make(map[string]PostCleanFunc)
	for i, base := range spec.Bases {
		if base == nil {
			errs.Set(fmt.Sprintf("bases[%d]", i), errors.New("base schema is nil"))
			continue
		}
		maps.Copy(merged, base.fields)
		maps.Copy(hooks, base.hooks)
	}
	maps.Copy(merged, spec.Fields)
	maps.Copy(hooks, spec.PostClean)

	for name := range hooks {
		if _, ok := merged[name]; !ok {
			errs.Set(name, errors.New("post-clean hook declared for an unknown field"))
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]entry, 0, len(names))
	for _, name := range names {
		f := merged[name]
		switch {
		case f.kind == kindInvalid:
			errs.Set(name, errors.New("field was not built with a constructor"))
			continue
		case f.kind == kindNested && f.sub == nil:
			errs.Set(name, errors.New("nested field declared with a nil schema"))
			continue
		}
		entries = append(entries, entry{name: name, field: f, postClean: hooks[name]})
	}
	if !errs.IsEmpty() {
		return nil, errs.AsError()
	}

	emitSchemaCompiled(context.Background(), len(entries))
	return &Schema{fields: merged, hooks: hooks, entries: entries}, nil
}

// MustCompile is Compile, panicking on error. Intended for package-level
// schema declarations.
func MustCompile(spec Spec) *Schema {
	schema, err := Compile(spec)
	if err != nil {
		panic(fmt.Sprintf("deserializer: invalid schema: %v", err))
	}
	return schema
}

var allPassSchema = &Schema{allPass: true}

// AllPass returns the schema that accepts any mapping verbatim and is
// always valid.
func AllPass() *Schema { return allPassSchema }

///////////////////////////////////////////////////////////////////////////////
// Binding and validation
///////////////////////////////////////////////////////////////////////////////

type boundState int

const (
	stateUnvalidated boundState = iota
	stateValidating
	stateValid
	stateInvalid
)

// Bound attaches raw data to a schema. Validation runs once, on the
// first access to Errors, Data or IsValid, and is memoized. A Bound is
// meant for single-goroutine use; bind a new one per payload.
type Bound struct {
	schema  *Schema
	data    any
	state   boundState
	errors  ErrorTree
	cleaned any
}

// Bind attaches raw payload data to the schema without validating it
// yet.
func (s *Schema) Bind(data any) *Bound {
	return &Bound{schema: s, data: data}
}

// IsValid reports whether the data cleaned without any recorded failure.
func (b *Bound) IsValid() bool {
	b.ensureClean()
	return b.state == stateValid
}

// Errors returns the error tree recorded by validation. It is empty for
// valid data.
func (b *Bound) Errors() ErrorTree {
	b.ensureClean()
	return b.errors
}

// Data returns the cleaned data: a map of cleaned values, or the raw
// empty sentinel verbatim when the bound data was nil or "".
func (b *Bound) Data() any {
	b.ensureClean()
	return b.cleaned
}

// Decode marshals the cleaned data into dst via JSON, mapping cleaned
// names onto struct tags. It fails with ErrInvalidData when validation
// recorded errors.
func (b *Bound) Decode(dst any) error {
	if !b.IsValid() {
		return ErrInvalidData
	}
	buf, err := json.Marshal(b.cleaned)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, dst)
}

func (b *Bound) ensureClean() {
	if b.state == stateUnvalidated {
		b.fullClean()
	}
}

// fullClean validates all of the bound data, populating the cleaned
// output and the error tree.
func (b *Bound) fullClean() {
	b.state = stateValidating
	b.errors = ErrorTree{}

	start := time.Now()
	emitCleanStart(context.Background(), len(b.schema.entries))
	b.cleanFields()
	emitCleanComplete(context.Background(), len(b.schema.entries), len(b.errors), time.Since(start))

	if b.errors.Empty() {
		b.state = stateValid
	} else {
		b.state = stateInvalid
	}
}

func (b *Bound) cleanFields() {
	// Empty payloads resolve verbatim, without structural validation.
	if isEmptyValue(b.data) {
		b.cleaned = b.data
		return
	}
	data, ok := stringMap(b.data)
	if !ok {
		b.errors.Add("", newValidationError(msgNotObject))
		return
	}
	if b.schema.allPass {
		out := make(map[string]any, len(data))
		maps.Copy(out, data)
		b.cleaned = out
		return
	}

	out := make(map[string]any, len(b.schema.entries))
	b.cleaned = out
	for i := range b.schema.entries {
		e := &b.schema.entries[i]
		value, store, verr := e.field.clean(data[e.name])
		if verr != nil {
			if e.field.required {
				b.errors.Add(e.name, verr)
			}
			continue
		}
		if !store {
			continue
		}
		out[e.name] = value
		if e.postClean == nil {
			continue
		}
		cleaned, err := e.postClean(value)
		if err != nil {
			// The pre-hook value stays stored.
			if e.field.required {
				b.errors.Add(e.name, toValidationError(err))
			}
			continue
		}
		out[e.name] = cleaned
	}
}
