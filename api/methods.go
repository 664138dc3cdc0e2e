package api

import (
	"net/http"
	"slices"
)

// HTTP method groupings used by the decoration layer when deciding which
// verbs a view answers and which ones carry a deserializable payload.
//
// See https://developer.mozilla.org/en-US/docs/Web/HTTP/Methods
var (
	// AllMethods lists every verb a wrapped view may be configured with.
	AllMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodOptions,
		http.MethodTrace,
		http.MethodConnect,
	}

	// PayloadMethods lists the verbs whose request bodies run through a
	// deserializer before the handler sees them.
	PayloadMethods = []string{
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
	}

	// SafeMethods lists the read-only verbs.
	SafeMethods = []string{
		http.MethodGet,
		http.MethodHead,
		http.MethodOptions,
	}
)

// SupportsPayload reports whether method carries a deserializable body.
func SupportsPayload(method string) bool {
	return slices.Contains(PayloadMethods, method)
}

// IsSafe reports whether method is read-only.
func IsSafe(method string) bool {
	return slices.Contains(SafeMethods, method)
}

// KnownMethod reports whether method belongs to AllMethods.
func KnownMethod(method string) bool {
	return slices.Contains(AllMethods, method)
}
