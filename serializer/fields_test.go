package serializer

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedString string

func TestTextValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name    string
		input   any
		want    any
		wantErr bool
	}{
		{name: "string", input: "hello", want: "hello"},
		{name: "named string", input: namedString("hello"), want: "hello"},
		{name: "bytes", input: []byte("hello"), want: "hello"},
		{name: "stringer", input: id, want: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{name: "int", input: 5, want: "5"},
		{name: "uint", input: uint8(7), want: "7"},
		{name: "float", input: 5.3, want: "5.3"},
		{name: "float32", input: float32(2.5), want: "2.5"},
		{name: "bool", input: true, want: "true"},
		{name: "nil", input: nil, wantErr: true},
		{name: "map", input: map[string]int{"a": 1}, wantErr: true},
		{name: "struct", input: struct{}{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := textValue(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntValue(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    int64
		wantErr bool
	}{
		{name: "int", input: 5, want: 5},
		{name: "int8", input: int8(-3), want: -3},
		{name: "uint", input: uint(7), want: 7},
		{name: "float truncates toward zero", input: 5.3, want: 5},
		{name: "negative float truncates toward zero", input: -5.9, want: -5},
		{name: "numeric string", input: "4", want: 4},
		{name: "padded numeric string", input: "  42  ", want: 42},
		{name: "uint64 overflow", input: uint64(math.MaxUint64), wantErr: true},
		{name: "huge float", input: 1e300, wantErr: true},
		{name: "nan", input: math.NaN(), wantErr: true},
		{name: "inf", input: math.Inf(1), wantErr: true},
		{name: "non numeric string", input: "abc", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "bool", input: true, wantErr: true},
		{name: "nil", input: nil, wantErr: true},
		{name: "slice", input: []int{1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := intValue(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatValue(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    float64
		wantErr bool
	}{
		{name: "float", input: 2.2, want: 2.2},
		{name: "float32", input: float32(2.5), want: 2.5},
		{name: "int", input: 5, want: 5},
		{name: "uint", input: uint16(9), want: 9},
		{name: "numeric string", input: "2.2", want: 2.2},
		{name: "padded numeric string", input: " 3.5 ", want: 3.5},
		{name: "non numeric string", input: "x", wantErr: true},
		{name: "nil", input: nil, wantErr: true},
		{name: "struct", input: struct{}{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := floatValue(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoolValue(t *testing.T) {
	filled := 5
	var empty *int

	tests := []struct {
		name  string
		input any
		want  bool
	}{
		{name: "nil", input: nil, want: false},
		{name: "false", input: false, want: false},
		{name: "true", input: true, want: true},
		{name: "zero int", input: 0, want: false},
		{name: "nonzero int", input: 3, want: true},
		{name: "zero float", input: 0.0, want: false},
		{name: "nonzero float", input: 0.1, want: true},
		{name: "empty string", input: "", want: false},
		{name: "string", input: "x", want: true},
		{name: "empty slice", input: []int{}, want: false},
		{name: "slice", input: []int{1}, want: true},
		{name: "empty map", input: map[string]int{}, want: false},
		{name: "map", input: map[string]int{"a": 1}, want: true},
		{name: "nil pointer", input: empty, want: false},
		{name: "pointer to value", input: &filled, want: true},
		{name: "struct", input: struct{}{}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := boolValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUUIDValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	canonical := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

	tests := []struct {
		name    string
		input   any
		want    string
		wantErr bool
	}{
		{name: "uuid value", input: id, want: canonical},
		{name: "canonical string", input: canonical, want: canonical},
		{name: "hyphenless string", input: "6ba7b8109dad11d180b400c04fd430c8", want: canonical},
		{name: "byte array", input: [16]byte(id), want: canonical},
		{name: "byte slice", input: id[:], want: canonical},
		{name: "invalid string", input: "not-a-uuid", wantErr: true},
		{name: "short byte slice", input: []byte{1, 2, 3}, wantErr: true},
		{name: "int", input: 5, wantErr: true},
		{name: "nil", input: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uuidValue(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListConstructorGuards(t *testing.T) {
	sub := MustCompile(Spec{Fields: Fields{"w": Int()}})

	t.Run("nested element panics", func(t *testing.T) {
		assert.PanicsWithValue(t,
			"serializer: cannot call List() with a nested schema field; the Many() option is available for Nested()",
			func() { List(Nested(sub)) })
	})

	t.Run("identity element panics", func(t *testing.T) {
		assert.Panics(t, func() { List(Raw()) })
	})

	t.Run("constant element panics", func(t *testing.T) {
		assert.Panics(t, func() { List(Const("x")) })
	})

	t.Run("method element panics", func(t *testing.T) {
		assert.Panics(t, func() { List(Method()) })
	})

	t.Run("scalar elements accepted", func(t *testing.T) {
		assert.NotPanics(t, func() {
			List(Int())
			List(Text())
			List(Float())
			List(Bool())
			List(UUID())
		})
	})
}

func TestConstConstructorGuards(t *testing.T) {
	t.Run("required non primitive panics", func(t *testing.T) {
		assert.Panics(t, func() { Const(struct{}{}) })
		assert.Panics(t, func() { Const(make(chan int)) })
		assert.Panics(t, func() { Const(map[int]string{1: "a"}) })
		assert.Panics(t, func() { Const([]any{1, struct{}{}}) })
	})

	t.Run("primitive constants accepted", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Const(nil)
			Const("v1")
			Const(5)
			Const(2.5)
			Const(true)
			Const([]int{1, 2, 3})
			Const(map[string]any{"a": []any{1, "b", nil}})
		})
	})

	t.Run("optional non primitive allowed at construction", func(t *testing.T) {
		assert.NotPanics(t, func() { Const(struct{}{}, Optional()) })
	})
}

func TestIsPrimitiveConst(t *testing.T) {
	assert.True(t, isPrimitiveConst(nil))
	assert.True(t, isPrimitiveConst("x"))
	assert.True(t, isPrimitiveConst(5))
	assert.True(t, isPrimitiveConst(uint32(5)))
	assert.True(t, isPrimitiveConst(2.5))
	assert.True(t, isPrimitiveConst(false))
	assert.True(t, isPrimitiveConst([]any{1, "b", nil}))
	assert.True(t, isPrimitiveConst([2]int{1, 2}))
	assert.True(t, isPrimitiveConst(map[string]any{"a": map[string]int{"b": 1}}))

	assert.False(t, isPrimitiveConst(struct{}{}))
	assert.False(t, isPrimitiveConst(make(chan int)))
	assert.False(t, isPrimitiveConst(map[int]string{1: "a"}))
	assert.False(t, isPrimitiveConst([]any{1, struct{}{}}))
	assert.False(t, isPrimitiveConst(map[string]any{"a": struct{}{}}))
}
