package serializer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subRecord struct {
	W int
}

type record struct {
	Foo  string
	Bar  int
	Sub  *subRecord
	Subs []subRecord
	Nums []any
	Tags []string
	ID   uuid.UUID
	Fn   func() string
	Err  func() (string, error)
}

func (r record) DoubleBar() int { return r.Bar * 2 }

type recordMethods struct{}

func (recordMethods) GetDouble(r record) int          { return r.Bar * 2 }
func (recordMethods) GetSubTotal(r record) int        { return r.Bar + 1 }
func (recordMethods) Minus(r record) int              { return r.Bar - 1 }
func (recordMethods) GetNothing(r record) any         { return nil }
func (recordMethods) GetBroken(r record) (int, error) { return 0, errors.New("broken") }
func (recordMethods) GetWeird(a, b int) int           { return a + b }

var subSchema = MustCompile(Spec{Fields: Fields{"w": Int()}})

func TestCompileErrors(t *testing.T) {
	t.Run("unknown method", func(t *testing.T) {
		_, err := Compile(Spec{Fields: Fields{"plus": Method()}, Methods: recordMethods{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "plus")
	})

	t.Run("missing methods owner", func(t *testing.T) {
		_, err := Compile(Spec{Fields: Fields{"double": Method()}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "double")
	})

	t.Run("bad method shape", func(t *testing.T) {
		_, err := Compile(Spec{Fields: Fields{"weird": Method()}, Methods: recordMethods{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weird")
	})

	t.Run("field without constructor", func(t *testing.T) {
		_, err := Compile(Spec{Fields: Fields{"bad": {}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad")
	})

	t.Run("nil nested schema", func(t *testing.T) {
		_, err := Compile(Spec{Fields: Fields{"sub": Nested(nil)}})
		require.Error(t, err)
	})

	t.Run("nil base", func(t *testing.T) {
		_, err := Compile(Spec{Bases: []*Schema{nil}})
		require.Error(t, err)
	})

	t.Run("errors are aggregated", func(t *testing.T) {
		_, err := Compile(Spec{Fields: Fields{"bad": {}, "sub": Nested(nil)}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad")
		assert.Contains(t, err.Error(), "sub")
	})

	t.Run("must compile panics", func(t *testing.T) {
		assert.Panics(t, func() { MustCompile(Spec{Fields: Fields{"bad": {}}}) })
		assert.NotPanics(t, func() { MustCompile(Spec{Fields: Fields{"foo": Text()}}) })
	})
}

func TestProjection(t *testing.T) {
	t.Run("scalar fields", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"foo": Text(), "bar": Int()}})

		data, err := schema.Serialize(record{Foo: "hello", Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"foo": "hello", "bar": int64(5)}, data)
	})

	t.Run("label renames the output key", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"foo": Text(Label("title"))}})

		data, err := schema.Serialize(record{Foo: "hello"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "hello"}, data)
	})

	t.Run("dotted attr path", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"w": Int(Attr("Sub.W"))}})

		data, err := schema.Serialize(record{Sub: &subRecord{W: 1000}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"w": int64(1000)}, data)
	})

	t.Run("lowercase attr path", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"w": Int(Attr("sub.w"))}})

		data, err := schema.Serialize(record{Sub: &subRecord{W: 1000}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"w": int64(1000)}, data)
	})

	t.Run("uuid attribute", func(t *testing.T) {
		id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		schema := MustCompile(Spec{Fields: Fields{"id": UUID()}})

		data, err := schema.Serialize(record{ID: id})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": id.String()}, data)
	})

	t.Run("missing required attribute aborts", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"nope": Raw()}})

		_, err := schema.Serialize(record{})
		require.Error(t, err)
		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "nope", serr.Field)
	})

	t.Run("missing optional attribute is dropped", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"nope": Raw(Optional()), "foo": Text()}})

		data, err := schema.Serialize(record{Foo: "hello"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"foo": "hello"}, data)
	})

	t.Run("nil optional value is an explicit null", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"sub": Nested(subSchema, Optional())}})

		data, err := schema.Serialize(record{Sub: nil})
		require.NoError(t, err)
		v, ok := data["sub"]
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("failed required coercion aborts", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"foo": Int()}})

		_, err := schema.Serialize(record{Foo: "not a number"})
		require.Error(t, err)
		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "foo", serr.Field)
	})

	t.Run("failed optional coercion is dropped", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"foo": Int(Optional()), "bar": Int()}})

		data, err := schema.Serialize(record{Foo: "not a number", Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"bar": int64(5)}, data)
	})
}

func TestCallOption(t *testing.T) {
	t.Run("fetched method is invoked", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"double": Int(Attr("DoubleBar"), Call())}})

		data, err := schema.Serialize(record{Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"double": int64(10)}, data)
	})

	t.Run("func field is invoked", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"fn": Text(Call())}})

		data, err := schema.Serialize(record{Fn: func() string { return "hi" }})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"fn": "hi"}, data)
	})

	t.Run("non callable required value aborts", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"foo": Text(Call())}})

		_, err := schema.Serialize(record{Foo: "x"})
		require.Error(t, err)
	})

	t.Run("failing callable on required field aborts", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"err": Text(Call())}})

		_, err := schema.Serialize(record{Err: func() (string, error) { return "", errors.New("boom") }})
		require.Error(t, err)
		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "err", serr.Field)
	})

	t.Run("failing callable on optional field is dropped", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"err": Text(Call(), Optional()), "foo": Text()}})

		data, err := schema.Serialize(record{
			Foo: "hello",
			Err: func() (string, error) { return "", errors.New("boom") },
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"foo": "hello"}, data)
	})
}

func TestMethodFields(t *testing.T) {
	t.Run("default method name", func(t *testing.T) {
		schema := MustCompile(Spec{
			Fields:  Fields{"double": Method()},
			Methods: recordMethods{},
		})

		data, err := schema.Serialize(record{Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"double": 10}, data)
	})

	t.Run("snake case field name resolves camel method", func(t *testing.T) {
		schema := MustCompile(Spec{
			Fields:  Fields{"sub_total": Method()},
			Methods: recordMethods{},
		})

		data, err := schema.Serialize(record{Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"sub_total": 6}, data)
	})

	t.Run("explicit method name", func(t *testing.T) {
		schema := MustCompile(Spec{
			Fields:  Fields{"minus": MethodName("Minus")},
			Methods: recordMethods{},
		})

		data, err := schema.Serialize(record{Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"minus": 4}, data)
	})

	t.Run("nil result is stored", func(t *testing.T) {
		schema := MustCompile(Spec{
			Fields:  Fields{"nothing": Method()},
			Methods: recordMethods{},
		})

		data, err := schema.Serialize(record{})
		require.NoError(t, err)
		v, ok := data["nothing"]
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("failing required method aborts", func(t *testing.T) {
		schema := MustCompile(Spec{
			Fields:  Fields{"broken": Method()},
			Methods: recordMethods{},
		})

		_, err := schema.Serialize(record{})
		require.Error(t, err)
		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "broken", serr.Field)
	})

	t.Run("failing optional method is dropped", func(t *testing.T) {
		schema := MustCompile(Spec{
			Fields:  Fields{"broken": Method(Optional()), "double": Method()},
			Methods: recordMethods{},
		})

		data, err := schema.Serialize(record{Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"double": 10}, data)
	})
}

func TestNestedFields(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"sub": Nested(subSchema)}})

		data, err := schema.Serialize(record{Sub: &subRecord{W: 1000}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"sub": map[string]any{"w": int64(1000)}}, data)
	})

	t.Run("many", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"subs": Nested(subSchema, Many())}})

		data, err := schema.Serialize(record{Subs: []subRecord{{W: 1}, {W: 2}}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"subs": []map[string]any{
			{"w": int64(1)},
			{"w": int64(2)},
		}}, data)
	})

	t.Run("nested failure propagates through optional field", func(t *testing.T) {
		strict := MustCompile(Spec{Fields: Fields{"nope": Raw()}})
		schema := MustCompile(Spec{Fields: Fields{"sub": Nested(strict, Optional())}})

		_, err := schema.Serialize(record{Sub: &subRecord{W: 1}})
		require.Error(t, err)
		var serr *Error
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "nope", serr.Field)
	})
}

func TestListFields(t *testing.T) {
	t.Run("element coercion applies to every element", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"nums": List(Int(Attr("Nums")))}})

		data, err := schema.Serialize(record{Nums: []any{5.3, "4", 3}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"nums": []any{int64(5), int64(4), int64(3)}}, data)
	})

	t.Run("element label and attr are copied from the element field", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"status": List(Text(Attr("Tags"), Label("allowed_status")))}})

		data, err := schema.Serialize(record{Tags: []string{"active", "trialing", "canceled"}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"allowed_status": []any{"active", "trialing", "canceled"}}, data)
	})

	t.Run("failing element aborts a required list", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"nums": List(Int(Attr("Nums")))}})

		_, err := schema.Serialize(record{Nums: []any{"abc"}})
		require.Error(t, err)
	})
}

func TestConstFields(t *testing.T) {
	t.Run("constant is injected", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"version": Const("v1"), "foo": Text()}})

		data, err := schema.Serialize(record{Foo: "hello"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"version": "v1", "foo": "hello"}, data)
	})

	t.Run("nil constant is an explicit null", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"empty": Const(nil)}})

		data, err := schema.Serialize(record{})
		require.NoError(t, err)
		v, ok := data["empty"]
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("optional non primitive constant is dropped", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{
			"bad": Const(struct{}{}, Optional()),
			"foo": Text(),
		}})

		data, err := schema.Serialize(record{Foo: "hello"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"foo": "hello"}, data)
	})
}

func TestBaseComposition(t *testing.T) {
	base := MustCompile(Spec{Fields: Fields{"foo": Text(), "bar": Int()}})

	t.Run("derived inherits base fields", func(t *testing.T) {
		derived := MustCompile(Spec{Bases: []*Schema{base}, Fields: Fields{"double": Int(Attr("DoubleBar"), Call())}})

		data, err := derived.Serialize(record{Foo: "hello", Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"foo": "hello", "bar": int64(5), "double": int64(10)}, data)
	})

	t.Run("later declaration wins", func(t *testing.T) {
		derived := MustCompile(Spec{Bases: []*Schema{base}, Fields: Fields{"foo": Text(Label("title"))}})

		data, err := derived.Serialize(record{Foo: "hello", Bar: 5})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "hello", "bar": int64(5)}, data)
	})
}

func TestMapKeyStrategy(t *testing.T) {
	t.Run("values come from map keys", func(t *testing.T) {
		schema := MustCompile(Spec{
			Fields: Fields{"foo": Int(), "bar": Float()},
			Getter: MapKey{},
		})

		data, err := schema.Serialize(map[string]any{"foo": "5", "bar": "2.2"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"foo": int64(5), "bar": 2.2}, data)
	})

	t.Run("missing required key aborts", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"baz": Int()}, Getter: MapKey{}})

		_, err := schema.Serialize(map[string]any{"foo": "5"})
		require.Error(t, err)
	})

	t.Run("missing optional key is dropped", func(t *testing.T) {
		schema := MustCompile(Spec{
			Fields: Fields{"baz": Int(Optional()), "foo": Int()},
			Getter: MapKey{},
		})

		data, err := schema.Serialize(map[string]any{"foo": "5"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"foo": int64(5)}, data)
	})
}

func TestDataCaching(t *testing.T) {
	t.Run("repeated access returns the same map", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"foo": Text()}})
		bound := schema.Bind(record{Foo: "hello"})

		d1, err := bound.Data()
		require.NoError(t, err)
		d2, err := bound.Data()
		require.NoError(t, err)
		assert.Equal(t, reflect.ValueOf(d1).Pointer(), reflect.ValueOf(d2).Pointer())
	})

	t.Run("failures are not cached", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"nope": Raw()}})
		bound := schema.Bind(record{})

		_, err := bound.Data()
		require.Error(t, err)
		_, err = bound.Data()
		require.Error(t, err)
	})

	t.Run("list data is cached", func(t *testing.T) {
		schema := MustCompile(Spec{Fields: Fields{"foo": Text()}})
		bound := schema.BindMany([]record{{Foo: "a"}, {Foo: "b"}})

		d1, err := bound.Data()
		require.NoError(t, err)
		d2, err := bound.Data()
		require.NoError(t, err)
		assert.Equal(t, reflect.ValueOf(d1).Pointer(), reflect.ValueOf(d2).Pointer())
	})
}

func TestSerializeMany(t *testing.T) {
	schema := MustCompile(Spec{Fields: Fields{"foo": Text(), "bar": Int()}})

	t.Run("slice of objects", func(t *testing.T) {
		data, err := schema.SerializeMany([]record{{Foo: "a", Bar: 1}, {Foo: "b", Bar: 2}})
		require.NoError(t, err)
		assert.Equal(t, []map[string]any{
			{"foo": "a", "bar": int64(1)},
			{"foo": "b", "bar": int64(2)},
		}, data)
	})

	t.Run("non iterable value", func(t *testing.T) {
		_, err := schema.SerializeMany(record{})
		require.ErrorIs(t, err, ErrNotIterable)
	})

	t.Run("nil value", func(t *testing.T) {
		_, err := schema.SerializeMany(nil)
		require.ErrorIs(t, err, ErrNotIterable)
	})
}
