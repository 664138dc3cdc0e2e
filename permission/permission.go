// Package permission implements the predicate algebra views are gated with.
//
// A Permission is a pure predicate over a request context. Predicates
// compose through And, Or, Xor and Not into new predicates whose names and
// descriptions are derived from the operands, so a composed permission like
// Or(IsAuthenticated, IsReadOnly) reports itself as
// (IsAuthenticated_OR_IsReadOnly) in logs and tooling.
package permission

import (
	"net/http"

	"github.com/declarest/restkit/api"
)

// Context carries the request under evaluation and the identity attached to
// it. View names the wrapped handler, for predicates that discriminate by
// target.
type Context struct {
	Request *http.Request
	User    UserInfo
	View    string
}

// UserInfo is the identity surface predicates evaluate against. Resolving a
// user from a request belongs to the caller; the decoration layer's
// Config.User hook produces one per request. A nil UserInfo reads as an
// anonymous user.
type UserInfo interface {
	IsAuthenticated() bool
	IsStaff() bool
	IsSuperuser() bool
}

// Permission is a side-effect-free predicate over a request context.
// Implementations must be safe for concurrent use; a single value is shared
// by every request hitting a wrapped view.
type Permission interface {
	// HasPermission reports whether the request is allowed through.
	HasPermission(ctx Context) bool
	// Name identifies the predicate. Composed predicates derive it from
	// their operands, e.g. (IsAuthenticated_OR_IsReadOnly).
	Name() string
	// Description is a human-readable account of what the predicate
	// checks, composed recursively for combined predicates.
	Description() string
}

// New builds a leaf predicate from fn. Name and description feed the
// composed names and descriptions of any combinator the predicate ends up
// inside.
func New(name, description string, fn func(Context) bool) Permission {
	return leaf{name: name, description: description, check: fn}
}

type leaf struct {
	name        string
	description string
	check       func(Context) bool
}

func (p leaf) HasPermission(ctx Context) bool {
	if p.check == nil {
		panic(ErrUnimplemented)
	}
	return p.check(ctx)
}

func (p leaf) Name() string { return p.name }

func (p leaf) Description() string { return p.description }

///////////////////////////////////////////////////////////////////////////////
// Built-in predicates
///////////////////////////////////////////////////////////////////////////////

var (
	// AllowAny allows everybody to access the view.
	AllowAny = New(
		"AllowAny",
		"Allows everybody to access the view.",
		func(Context) bool { return true },
	)

	// IsAuthenticated allows the view access to authenticated users only.
	IsAuthenticated = New(
		"IsAuthenticated",
		"Allows the view access to authenticated users only.",
		func(ctx Context) bool {
			return ctx.User != nil && ctx.User.IsAuthenticated()
		},
	)

	// IsStaff allows the view access to staff users only.
	IsStaff = New(
		"IsStaff",
		"Allows the view access to staff users only.",
		func(ctx Context) bool {
			return ctx.User != nil && ctx.User.IsStaff()
		},
	)

	// IsAdmin allows the view access to admin users only.
	IsAdmin = New(
		"IsAdmin",
		"Allows the view access to admin users only.",
		func(ctx Context) bool {
			return ctx.User != nil && ctx.User.IsSuperuser()
		},
	)

	// IsReadOnly allows the view access to read-only HTTP methods: GET,
	// HEAD and OPTIONS.
	IsReadOnly = New(
		"IsReadOnly",
		"Allows the view access to read-only HTTP methods: GET, HEAD and OPTIONS.",
		func(ctx Context) bool {
			return ctx.Request != nil && api.IsSafe(ctx.Request.Method)
		},
	)

	// IsAuthenticatedOrReadOnly allows authenticated users through on any
	// method and anonymous users on the read-only ones.
	IsAuthenticatedOrReadOnly = Or(IsAuthenticated, IsReadOnly)
)
