// Package view turns plain handlers into decorated http.Handlers. A wrapped
// view checks the method allow-set, evaluates its permission predicate,
// normalizes query and URL parameters, extracts and validates the payload,
// and maps every failure onto the api error taxonomy, so handler code only
// ever sees requests that passed the whole gate.
//
//	handler := func(r *http.Request, in view.Input) (*api.Response, error) {
//		return api.OK(map[string]any{"created": in.Data}), nil
//	}
//
//	mux.Handle("POST /orders", view.MustWrap(handler, view.Config{
//		Permission: permission.IsAuthenticated,
//		Methods:    []string{http.MethodPost},
//		Schema:     orderSchema,
//	}))
package view

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/hengadev/errsx"

	"github.com/declarest/restkit/api"
	"github.com/declarest/restkit/deserializer"
	"github.com/declarest/restkit/permission"
)

var (
	ErrNilHandler = errors.New("cannot wrap a nil handler")
	ErrNilBundle  = errors.New("cannot wrap a nil bundle")
)

///////////////////////////////////////////////////////////////////////////////
// Handler contract
///////////////////////////////////////////////////////////////////////////////

// Input carries the request data the decoration layer prepared for the
// handler.
type Input struct {
	// URLParams holds the wildcard values of the matched ServeMux pattern.
	URLParams map[string]string
	// QueryParams holds normalized query parameters: string for a key
	// given once, []string for a repeated one.
	QueryParams map[string]any
	// Data holds the validated payload of POST, PUT and PATCH requests.
	// It is nil for the other methods.
	Data map[string]any
}

// Handler is the function a view implements. Returning an *api.Error maps
// onto its status; any other error answers with a generic 500 whose cause
// is only logged.
type Handler func(r *http.Request, in Input) (*api.Response, error)

// Config declares how a view is decorated. The zero value is usable: every
// method allowed, AllowAny permission, all payloads accepted verbatim.
type Config struct {
	// Permission gates every request. Defaults to permission.AllowAny.
	Permission permission.Permission

	// Methods is the allow-set; requests outside it answer 405. Defaults
	// to api.AllMethods.
	Methods []string

	// Schema validates the payload of every payload method. Mutually
	// exclusive with Schemas.
	Schema *deserializer.Schema

	// Schemas assigns one schema per payload method. Payload methods
	// missing from the map accept anything.
	Schemas map[string]*deserializer.Schema

	// AllowForms accepts form-encoded POST bodies instead of rejecting
	// them.
	AllowForms bool

	// FormRejection is the failure answered for disallowed form payloads.
	// Defaults to api.UnsupportedMediaType; deployments that treat forms
	// as a policy violation set api.PermissionDenied instead.
	FormRejection *api.Error

	// User resolves the identity the permission evaluates against. A nil
	// hook leaves the request anonymous.
	User func(*http.Request) permission.UserInfo

	// Logger receives the detail of 500s and rejected payloads. Defaults
	// to slog.Default. Nothing is ever written onto the response.
	Logger *slog.Logger
}

///////////////////////////////////////////////////////////////////////////////
// Construction
///////////////////////////////////////////////////////////////////////////////

// Wrap decorates a handler function. The configuration is validated here,
// once, so a served view never has to re-check it.
func Wrap(h Handler, cfg Config) (http.Handler, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return wrap(h, handlerName(h), cfg)
}

// MustWrap is Wrap for views declared at program start. It panics when the
// configuration does not validate.
func MustWrap(h Handler, cfg Config) http.Handler {
	handler, err := Wrap(h, cfg)
	if err != nil {
		panic(fmt.Sprintf("view: invalid view: %v", err))
	}
	return handler
}

// wrapped is a compiled view: the handler plus its validated configuration.
// It is immutable and safe for concurrent use.
type wrapped struct {
	handler       Handler
	name          string
	perm          permission.Permission
	methods       []string
	schemas       map[string]*deserializer.Schema // keyed by payload method, always fully populated
	allowForms    bool
	formRejection *api.Error
	user          func(*http.Request) permission.UserInfo
	logger        *slog.Logger
}

func wrap(h Handler, name string, cfg Config) (*wrapped, error) {
	v, err := compileConfig(cfg)
	if err != nil {
		return nil, err
	}
	v.handler = h
	v.name = name
	return v, nil
}

// compileConfig validates cfg and resolves its defaults. Problems are
// aggregated so a misdeclared view reports everything at once.
func compileConfig(cfg Config) (*wrapped, error) {
	var errs errsx.Map

	methods := cfg.Methods
	if len(methods) == 0 {
		methods = api.AllMethods
	}
	for i, method := range methods {
		if !api.KnownMethod(method) {
			errs.Set(fmt.Sprintf("methods[%d]", i), fmt.Errorf("unknown HTTP method %q", method))
		}
	}

	schemas := make(map[string]*deserializer.Schema, len(api.PayloadMethods))
	for _, method := range api.PayloadMethods {
		schemas[method] = deserializer.AllPass()
	}
	switch {
	case cfg.Schema != nil && cfg.Schemas != nil:
		errs.Set("schema", errors.New("Schema and Schemas are mutually exclusive"))
	case cfg.Schema != nil:
		for _, method := range api.PayloadMethods {
			schemas[method] = cfg.Schema
		}
	case cfg.Schemas != nil:
		for method, schema := range cfg.Schemas {
			switch {
			case !api.SupportsPayload(method):
				errs.Set(fmt.Sprintf("schemas[%s]", method), errors.New("deserializers only apply to POST, PUT and PATCH"))
			case schema == nil:
				errs.Set(fmt.Sprintf("schemas[%s]", method), errors.New("schema is nil"))
			default:
				schemas[method] = schema
			}
		}
	}

	if !errs.IsEmpty() {
		return nil, errs.AsError()
	}

	perm := cfg.Permission
	if perm == nil {
		perm = permission.AllowAny
	}
	rejection := cfg.FormRejection
	if rejection == nil {
		rejection = api.UnsupportedMediaType()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &wrapped{
		perm:          perm,
		methods:       methods,
		schemas:       schemas,
		allowForms:    cfg.AllowForms,
		formRejection: rejection,
		user:          cfg.User,
		logger:        logger,
	}, nil
}

// handlerName resolves a debug name for the view, fed into
// permission.Context.View and the logs.
func handlerName(h Handler) string {
	if fn := runtime.FuncForPC(reflect.ValueOf(h).Pointer()); fn != nil {
		return fn.Name()
	}
	return ""
}

///////////////////////////////////////////////////////////////////////////////
// Serving
///////////////////////////////////////////////////////////////////////////////

func (v *wrapped) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := v.handle(r)
	if err := api.WriteJSON(w, resp); err != nil {
		v.logger.Error("writing view response failed", "view", v.name, "error", err)
	}
	emitRequestHandled(r.Context(), r.Method, r.URL.Path, resp.Status, time.Since(start))
}

// handle runs the gate and the handler, turning every failure into a
// client-facing response. Panics land on the generic 500 with the detail
// logged, never echoed.
func (v *wrapped) handle(r *http.Request) (resp *api.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			v.logger.Error("recovered panic in view", "view", v.name, "panic", rec)
			resp = api.FromError(api.InternalServerError())
		}
	}()

	resp, err := v.process(r)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return api.FromError(apiErr)
		}
		v.logger.Error("view handler failed", "view", v.name, "error", err)
		return api.FromError(api.InternalServerError())
	}
	if resp == nil {
		v.logger.Error("view handler returned no response", "view", v.name)
		return api.FromError(api.InternalServerError())
	}
	return resp
}

// process applies the gate in its fixed order: allow-set, permission,
// parameter normalization, payload extraction, payload validation, handler.
func (v *wrapped) process(r *http.Request) (*api.Response, error) {
	if !slices.Contains(v.methods, r.Method) {
		return nil, api.MethodNotAllowed()
	}
	if !v.permitted(r) {
		return nil, api.PermissionDenied()
	}

	in := Input{
		URLParams:   urlParams(r),
		QueryParams: normalizeValues(r.URL.Query()),
	}

	payload, err := v.extractPayload(r)
	if err != nil {
		return nil, err
	}
	if api.SupportsPayload(r.Method) {
		bound := v.schemas[r.Method].Bind(payload)
		if !bound.IsValid() {
			v.logger.Debug("payload rejected", "view", v.name, "errors", bound.Errors().Flatten())
			return nil, api.BadRequest()
		}
		if data, ok := bound.Data().(map[string]any); ok {
			in.Data = data
		}
	}

	return v.handler(r, in)
}

func (v *wrapped) permitted(r *http.Request) bool {
	ctx := permission.Context{Request: r, View: v.name}
	if v.user != nil {
		ctx.User = v.user(r)
	}
	return v.perm.HasPermission(ctx)
}
