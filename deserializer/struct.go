package deserializer

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
)

///////////////////////////////////////////////////////////////////////////////
// Struct Tags
///////////////////////////////////////////////////////////////////////////////

// CleanTag is the struct tag consulted when deriving a Schema from a struct
// type with ForType.
//
// The tag value is a comma-separated list. The first token may name the field
// kind (int, float, text, bool, uuid, nested); when omitted the kind is
// inferred from the Go type of the field. The remaining tokens are options:
//
//	optional      the field may be absent from the payload
//	min=N         minimum numeric value (int and float fields)
//	max=N         maximum numeric value (int and float fields)
//	minlen=N      minimum length in runes (text fields)
//	maxlen=N      maximum length in runes (text fields)
//
// A tag value of "-" excludes the field from the schema entirely, as does a
// json:"-" tag. The payload key for a field is taken from its json tag when
// present, otherwise the field name is converted to snake_case.
//
//	type CreateUser struct {
//	    Name   string    `json:"name" clean:"text,minlen=1,maxlen=64"`
//	    Age    int       `json:"age" clean:"optional,min=0,max=150"`
//	    Token  uuid.UUID `json:"token"`
//	    Filter Prefs     `json:"filter" clean:"nested,optional"`
//	}
const CleanTag = "clean"

///////////////////////////////////////////////////////////////////////////////
// Schema Cache
///////////////////////////////////////////////////////////////////////////////

var (
	structSchemas = make(map[reflect.Type]*Schema) // Cache for derived schemas. Keyed by struct type.
	structMutex   sync.RWMutex                     // Mutex for thread-safe access to structSchemas
)

// ForType derives a Schema from the clean tags of the struct type T.
//
// The derivation runs once per type; repeated calls return the cached
// Schema. Pointer types are dereferenced, so ForType[*CreateUser] and
// ForType[CreateUser] share one cache entry.
func ForType[T any]() (*Schema, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	structMutex.RLock()
	schema, exists := structSchemas[typ]
	structMutex.RUnlock()

	if exists {
		return schema, nil
	}

	schema, err := schemaForType(typ, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}

	structMutex.Lock()
	structSchemas[typ] = schema
	structMutex.Unlock()

	return schema, nil
}

// MustForType is ForType for schemas declared at package level. It panics
// when the struct's tags do not describe a valid schema.
func MustForType[T any]() *Schema {
	schema, err := ForType[T]()
	if err != nil {
		panic(fmt.Sprintf("deserializer: invalid struct schema: %v", err))
	}
	return schema
}

// schemaForType walks the exported fields of typ and compiles a Schema from
// their tags. path holds the struct types on the current derivation path so
// that self-referential types fail instead of recursing forever.
func schemaForType(typ reflect.Type, path map[reflect.Type]bool) (*Schema, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotAStruct, typ)
	}
	if path[typ] {
		return nil, fmt.Errorf("%w: %s", ErrRecursiveType, typ)
	}
	path[typ] = true
	defer delete(path, typ)

	fields := Fields{}
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get(CleanTag)
		if tag == "-" {
			continue
		}

		key, ok := payloadKey(sf)
		if !ok {
			continue
		}

		field, err := fieldFromTag(sf, tag, path)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		fields[key] = field
	}

	return Compile(Spec{Fields: fields})
}

///////////////////////////////////////////////////////////////////////////////
// Tag Decoding
///////////////////////////////////////////////////////////////////////////////

// fieldFromTag decodes one clean tag into a Field. The kind comes from the
// first tag token when it names one, otherwise from the field's Go type.
func fieldFromTag(sf reflect.StructField, tag string, path map[reflect.Type]bool) (Field, error) {
	tokens := tagTokens(tag)

	kind := kindInvalid
	if len(tokens) > 0 {
		if k, ok := kindFromToken(tokens[0]); ok {
			kind = k
			tokens = tokens[1:]
		}
	}
	if kind == kindInvalid {
		k, err := inferKind(sf.Type)
		if err != nil {
			return Field{}, err
		}
		kind = k
	}

	opts, err := optionsFromTokens(kind, tokens)
	if err != nil {
		return Field{}, err
	}

	if kind == kindNested {
		sub, err := schemaForType(sf.Type, path)
		if err != nil {
			return Field{}, err
		}
		return Nested(sub, opts...), nil
	}

	return newField(kind, opts...), nil
}

// tagTokens splits a clean tag into trimmed tokens. An empty tag yields no
// tokens, which leaves both the kind and the options to be inferred.
func tagTokens(tag string) []string {
	if tag == "" {
		return nil
	}

	tokens := strings.Split(tag, ",")
	for i := 0; i < len(tokens); i++ {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	return tokens
}

// kindFromToken maps a leading tag token to a field kind.
func kindFromToken(token string) (fieldKind, bool) {
	switch token {
	case "int":
		return kindInt, true
	case "float":
		return kindFloat, true
	case "text":
		return kindText, true
	case "bool":
		return kindBool, true
	case "uuid":
		return kindUUID, true
	case "nested":
		return kindNested, true
	}
	return kindInvalid, false
}

var uuidType = reflect.TypeOf(uuid.UUID{})

// inferKind picks a field kind from a Go type when the tag does not name
// one. Pointers are dereferenced first, so *string infers text.
func inferKind(typ reflect.Type) (fieldKind, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if typ == uuidType {
		return kindUUID, nil
	}

	switch typ.Kind() {
	case reflect.String:
		return kindText, nil
	case reflect.Bool:
		return kindBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindInt, nil
	case reflect.Float32, reflect.Float64:
		return kindFloat, nil
	case reflect.Struct:
		return kindNested, nil
	}

	return kindInvalid, fmt.Errorf("cannot infer a field kind for type %s", typ)
}

// optionsFromTokens decodes option tokens against an already-resolved kind.
// Limit options are rejected here rather than panicking inside the Option,
// since tags are data and a typo should surface as an error from ForType.
func optionsFromTokens(kind fieldKind, tokens []string) ([]Option, error) {
	var opts []Option

	for i := 0; i < len(tokens); i++ {
		name, arg, _ := strings.Cut(tokens[i], "=")

		switch name {
		case "optional":
			opts = append(opts, Optional())
		case "min", "max":
			if kind != kindInt && kind != kindFloat {
				return nil, fmt.Errorf("option %q requires an int or float field, not %s", name, kindName(kind))
			}
			limit, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, fmt.Errorf("option %q needs a numeric argument, got %q", name, arg)
			}
			if name == "min" {
				opts = append(opts, MinValue(limit))
			} else {
				opts = append(opts, MaxValue(limit))
			}
		case "minlen", "maxlen":
			if kind != kindText {
				return nil, fmt.Errorf("option %q requires a text field, not %s", name, kindName(kind))
			}
			n, err := strconv.Atoi(arg)
			if err != nil {
				return nil, fmt.Errorf("option %q needs an integer argument, got %q", name, arg)
			}
			if name == "minlen" {
				opts = append(opts, MinLength(n))
			} else {
				opts = append(opts, MaxLength(n))
			}
		default:
			return nil, fmt.Errorf("unknown option %q in %s tag", tokens[i], CleanTag)
		}
	}

	return opts, nil
}

///////////////////////////////////////////////////////////////////////////////
// Payload Keys
///////////////////////////////////////////////////////////////////////////////

// payloadKey resolves the payload key for a struct field: the json tag name
// when one is set, otherwise the field name in snake_case. A json:"-" tag
// excludes the field.
func payloadKey(sf reflect.StructField) (string, bool) {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		if tag == "-" {
			return "", false
		}
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name, true
		}
	}
	return toSnake(sf.Name), true
}

// toSnake converts an exported Go field name to snake_case. Runs of capitals
// stay together, so URLPath becomes url_path and ID becomes id.
func toSnake(name string) string {
	var b strings.Builder
	runes := []rune(name)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if unicode.IsUpper(r) {
			startsWord := i > 0 && !unicode.IsUpper(runes[i-1])
			endsRun := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if startsWord || endsRun {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}

	return b.String()
}
