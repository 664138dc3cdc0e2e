package view

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/declarest/restkit/api"
)

// Content types treated as form submissions rather than JSON bodies.
var formContentTypes = []string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

// maxFormMemory bounds the in-memory part of a multipart form.
const maxFormMemory = 32 << 20

// extractPayload returns the request's payload: a normalized form map for
// allowed POST forms, the decoded JSON body for payload methods, nil for
// everything else.
//
// Form content types are checked before anything else, so a disallowed form
// is rejected whatever the method. An allowed form on a non-POST payload
// method falls through to the JSON path.
func (v *wrapped) extractPayload(r *http.Request) (any, error) {
	if isFormContentType(r) {
		if !v.allowForms {
			return nil, v.formRejection
		}
		if r.Method == http.MethodPost {
			return formPayload(r)
		}
	}

	if !api.SupportsPayload(r.Method) {
		return nil, nil
	}

	return jsonPayload(r)
}

// isFormContentType reports whether the request declares one of the form
// content types, ignoring parameters like a multipart boundary.
func isFormContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))

	for _, formCT := range formContentTypes {
		if ct == formCT {
			return true
		}
	}
	return false
}

// formPayload parses an allowed POST form into a normalized map.
func formPayload(r *http.Request) (any, error) {
	var err error
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, api.BadRequest().WithMessage("Malformed form payload.")
	}
	return normalizeValues(r.PostForm), nil
}

// jsonPayload decodes the request body. An absent or empty body decodes to
// an empty object; anything else must be valid JSON.
func jsonPayload(r *http.Request) (any, error) {
	if r.Body == nil || r.ContentLength == 0 {
		return map[string]any{}, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, api.BadRequest().WithMessage("Malformed JSON payload.")
	}
	return gjson.ParseBytes(body).Value(), nil
}

// normalizeValues flattens multi-valued parameters the way clients expect:
// a key given once maps to its string, a repeated key to a []string.
func normalizeValues(values url.Values) map[string]any {
	params := make(map[string]any, len(values))
	for key, list := range values {
		switch len(list) {
		case 0:
			continue
		case 1:
			params[key] = list[0]
		default:
			params[key] = list
		}
	}
	return params
}

// urlParams collects the wildcard values of the ServeMux pattern the
// request matched. Requests served outside a pattern mux get an empty map.
func urlParams(r *http.Request) map[string]string {
	params := map[string]string{}
	for _, name := range patternNames(r.Pattern) {
		params[name] = r.PathValue(name)
	}
	return params
}

// patternNames extracts the wildcard names from a ServeMux pattern like
// "POST /orders/{id}/items/{item...}".
func patternNames(pattern string) []string {
	var names []string
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '{' {
			continue
		}
		j := strings.IndexByte(pattern[i:], '}')
		if j < 0 {
			break
		}
		name := strings.TrimSuffix(pattern[i+1:i+j], "...")
		if name != "" && name != "$" {
			names = append(names, name)
		}
		i += j
	}
	return names
}
