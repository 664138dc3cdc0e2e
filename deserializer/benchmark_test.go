package deserializer

import (
	"testing"
)

var benchSimpleSchema = MustCompile(Spec{Fields: Fields{
	"w": Int(),
	"x": Int(),
	"y": Text(),
	"z": Int(),
}})

var benchComplexSchema = MustCompile(Spec{Fields: Fields{
	"foo": Text(),
	"bar": Int(),
	"sub": Nested(benchSimpleSchema),
}})

// benchPayload mimics a decoded JSON body, so numbers arrive as float64.
func benchPayload() map[string]any {
	return map[string]any{
		"foo": "bar",
		"bar": float64(5),
		"sub": map[string]any{
			"w": float64(1000),
			"x": float64(20),
			"y": "hello",
			"z": float64(10),
		},
	}
}

// BenchmarkCleanSimple measures a flat clean with coercions only.
func BenchmarkCleanSimple(b *testing.B) {
	payload := map[string]any{"w": float64(1000), "x": float64(20), "y": "hello", "z": float64(10)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bound := benchSimpleSchema.Bind(payload)
		if !bound.IsValid() {
			b.Fatalf("Failed to clean: %v", bound.Errors().Flatten())
		}
	}
}

// BenchmarkCleanComplex measures a clean that recurses into a nested schema.
func BenchmarkCleanComplex(b *testing.B) {
	payload := benchPayload()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bound := benchComplexSchema.Bind(payload)
		if !bound.IsValid() {
			b.Fatalf("Failed to clean: %v", bound.Errors().Flatten())
		}
	}
}

// BenchmarkForTypeCached measures schema lookup for an already-built struct
// type. Every iteration after the first is a cache hit.
func BenchmarkForTypeCached(b *testing.B) {
	type benchForm struct {
		Name string `clean:"text,minlen=1"`
		Age  int    `clean:"optional,min=0"`
	}
	if _, err := ForType[benchForm](); err != nil {
		b.Fatalf("Failed to build schema: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ForType[benchForm](); err != nil {
			b.Fatalf("Failed to fetch schema: %v", err)
		}
	}
}
