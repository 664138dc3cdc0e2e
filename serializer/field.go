// Package serializer implements the declarative projection engine: schemas
// of fields that turn domain objects into plain nested maps ready for JSON
// encoding.
//
// A schema is declared once through a Spec and compiled into an immutable
// plan. Binding the schema to an object produces a Serializer whose Data is
// computed lazily and cached:
//
//	var order = serializer.MustCompile(serializer.Spec{Fields: serializer.Fields{
//		"reference": serializer.Text(),
//		"total":     serializer.Float(serializer.Attr("Amount")),
//		"status":    serializer.Text(serializer.Optional()),
//	}})
//
//	data, err := order.Serialize(o)
//	// data = map[string]any{"reference": "ord-1", "total": 12.5, ...}
package serializer

// Getter fetches the raw value a field projects from the source object.
type Getter func(obj any) (any, error)

// Coerce transforms a fetched value into its serialized form.
type Coerce func(value any) (any, error)

// MethodFunc is a schema method resolved for a Method field, already bound
// to the Methods owner the schema was compiled with. It receives the object
// being serialized.
type MethodFunc func(obj any) (any, error)

type fieldKind int

const (
	kindInvalid fieldKind = iota
	kindRaw
	kindText
	kindInt
	kindFloat
	kindBool
	kindUUID
	kindConst
	kindMethod
	kindList
	kindNested
)

func kindName(kind fieldKind) string {
	switch kind {
	case kindRaw:
		return "Raw"
	case kindText:
		return "Text"
	case kindInt:
		return "Int"
	case kindFloat:
		return "Float"
	case kindBool:
		return "Bool"
	case kindUUID:
		return "UUID"
	case kindConst:
		return "Const"
	case kindMethod:
		return "Method"
	case kindList:
		return "List"
	case kindNested:
		return "Nested"
	}
	return "invalid"
}

// Field declares one entry of a schema: where the value comes from, how it
// is transformed and under which name it is emitted. Fields are immutable
// once constructed; options only apply inside the constructors.
type Field struct {
	kind       fieldKind
	attr       string // dotted source path; empty means the declared name
	label      string // output name override
	call       bool   // invoke the fetched value before coercion
	required   bool
	toValue    Coerce // nil keeps the fetched value untouched
	constant   any
	methodName string
	sub        *Schema
	many       bool
}

// Option adjusts a Field declaration at construction time.
type Option func(*Field)

// Attr sets the dotted path the value is fetched from. It defaults to the
// name the field is declared under in the schema.
func Attr(path string) Option {
	return func(f *Field) { f.attr = path }
}

// Label renames the field in the serialized output.
func Label(name string) Option {
	return func(f *Field) { f.label = name }
}

// Optional makes the field droppable: fetch and coercion failures skip it
// instead of aborting the projection, and nil values pass through to the
// output uncoerced.
func Optional() Option {
	return func(f *Field) { f.required = false }
}

// Call invokes the fetched value as a zero-argument function before
// coercion. The function may return a single value or a value and an
// error.
func Call() Option {
	return func(f *Field) { f.call = true }
}

// Many makes a Nested field project a list of sub-objects instead of a
// single one. It has no effect on other field kinds.
func Many() Option {
	return func(f *Field) { f.many = true }
}

func newField(kind fieldKind, toValue Coerce, opts ...Option) Field {
	f := Field{kind: kind, required: true, toValue: toValue}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}
