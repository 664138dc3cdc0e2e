package view

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"slices"

	"github.com/declarest/restkit/api"
)

var (
	ErrEmptyBundle     = errors.New("bundle implements none of the view interfaces")
	ErrNoBundleMethods = errors.New("no configured method is implemented by the bundle")
)

///////////////////////////////////////////////////////////////////////////////
// Bundle interfaces
///////////////////////////////////////////////////////////////////////////////

// A bundle groups the handlers of one resource under a single value, one
// method per verb. WrapBundle probes for each interface below; a verb whose
// interface is missing stays outside the view's allow-set.

// Getter answers GET requests.
type Getter interface {
	Get(r *http.Request, in Input) (*api.Response, error)
}

// Poster answers POST requests.
type Poster interface {
	Post(r *http.Request, in Input) (*api.Response, error)
}

// Putter answers PUT requests.
type Putter interface {
	Put(r *http.Request, in Input) (*api.Response, error)
}

// Patcher answers PATCH requests.
type Patcher interface {
	Patch(r *http.Request, in Input) (*api.Response, error)
}

// Deleter answers DELETE requests.
type Deleter interface {
	Delete(r *http.Request, in Input) (*api.Response, error)
}

// Header answers HEAD requests.
type Header interface {
	Head(r *http.Request, in Input) (*api.Response, error)
}

// Optioner answers OPTIONS requests.
type Optioner interface {
	Options(r *http.Request, in Input) (*api.Response, error)
}

// Tracer answers TRACE requests.
type Tracer interface {
	Trace(r *http.Request, in Input) (*api.Response, error)
}

// Connecter answers CONNECT requests.
type Connecter interface {
	Connect(r *http.Request, in Input) (*api.Response, error)
}

///////////////////////////////////////////////////////////////////////////////
// Construction
///////////////////////////////////////////////////////////////////////////////

// WrapBundle decorates a resource bundle. The bundle is probed once, at
// construction, into an explicit forwarding table; the view's allow-set is
// the intersection of the implemented verbs and the configured ones, so a
// verb missing either answers 405.
func WrapBundle(bundle any, cfg Config) (http.Handler, error) {
	if bundle == nil {
		return nil, ErrNilBundle
	}

	table := bundleTable(bundle)
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: %T", ErrEmptyBundle, bundle)
	}

	dispatch := func(r *http.Request, in Input) (*api.Response, error) {
		return table[r.Method](r, in)
	}
	v, err := wrap(dispatch, reflect.TypeOf(bundle).String(), cfg)
	if err != nil {
		return nil, err
	}

	var effective []string
	for _, method := range api.AllMethods {
		if _, ok := table[method]; ok && slices.Contains(v.methods, method) {
			effective = append(effective, method)
		}
	}
	if len(effective) == 0 {
		return nil, fmt.Errorf("%w: %T", ErrNoBundleMethods, bundle)
	}
	v.methods = effective

	return v, nil
}

// MustWrapBundle is WrapBundle for views declared at program start. It
// panics when the bundle or configuration does not validate.
func MustWrapBundle(bundle any, cfg Config) http.Handler {
	handler, err := WrapBundle(bundle, cfg)
	if err != nil {
		panic(fmt.Sprintf("view: invalid bundle view: %v", err))
	}
	return handler
}

// bundleTable probes the bundle for each verb interface, building the
// forwarding table.
func bundleTable(bundle any) map[string]Handler {
	table := map[string]Handler{}
	if h, ok := bundle.(Getter); ok {
		table[http.MethodGet] = h.Get
	}
	if h, ok := bundle.(Poster); ok {
		table[http.MethodPost] = h.Post
	}
	if h, ok := bundle.(Putter); ok {
		table[http.MethodPut] = h.Put
	}
	if h, ok := bundle.(Patcher); ok {
		table[http.MethodPatch] = h.Patch
	}
	if h, ok := bundle.(Deleter); ok {
		table[http.MethodDelete] = h.Delete
	}
	if h, ok := bundle.(Header); ok {
		table[http.MethodHead] = h.Head
	}
	if h, ok := bundle.(Optioner); ok {
		table[http.MethodOptions] = h.Options
	}
	if h, ok := bundle.(Tracer); ok {
		table[http.MethodTrace] = h.Trace
	}
	if h, ok := bundle.(Connecter); ok {
		table[http.MethodConnect] = h.Connect
	}
	return table
}
