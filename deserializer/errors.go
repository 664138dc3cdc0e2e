package deserializer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// Errors
///////////////////////////////////////////////////////////////////////////////

var (
	// ErrInvalidData is returned by Decode when the bound data did not
	// pass validation.
	ErrInvalidData = errors.New("data did not validate against the schema")

	ErrNotAStruct    = errors.New("type is not a struct")
	ErrRecursiveType = errors.New("recursive struct types are not supported")
)

// ErrorTree is the nested error structure produced by validation. Values
// are either []string, the messages of a flat field, or a nested
// ErrorTree contributed by a nested schema field.
type ErrorTree map[string]any

// Empty reports whether validation recorded no failure at any depth.
func (t ErrorTree) Empty() bool { return len(t) == 0 }

// Add records a validation failure under name. A failure carrying a
// nested tree is stored as a subtree; a flat one stores its messages.
// An empty name files the failure under NonFieldErrors.
func (t ErrorTree) Add(name string, verr *ValidationError) {
	if verr.Tree != nil {
		t[name] = verr.Tree
		return
	}
	if name == "" {
		name = NonFieldErrors
	}
	t[name] = verr.Messages
}

// Flatten renders the tree as sorted "path: message" lines, mainly for
// logging.
func (t ErrorTree) Flatten() []string {
	var lines []string
	t.flattenInto("", &lines)
	sort.Strings(lines)
	return lines
}

func (t ErrorTree) flattenInto(prefix string, lines *[]string) {
	for name, value := range t {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		switch v := value.(type) {
		case []string:
			for _, msg := range v {
				*lines = append(*lines, path+": "+msg)
			}
		case ErrorTree:
			v.flattenInto(path, lines)
		}
	}
}

// ValidationError is the failure of a single clean step. Flat failures
// carry Messages; a nested schema failure carries its whole error tree.
type ValidationError struct {
	Messages []string
	Tree     ErrorTree
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tree != nil {
		return fmt.Sprintf("%d invalid fields", len(e.Tree))
	}
	return strings.Join(e.Messages, "; ")
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{Messages: []string{message}}
}

// toValidationError adapts an arbitrary error, keeping an actual
// *ValidationError as is.
func toValidationError(err error) *ValidationError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return newValidationError(err.Error())
}
