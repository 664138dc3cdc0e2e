package permission

import (
	"errors"
	"fmt"
)

// ErrUnimplemented is the panic value raised when a predicate or operator
// is evaluated without a concrete implementation. The decoration layer
// recovers it into a 500 response.
var ErrUnimplemented = errors.New("permission: operation is not implemented")

// Operator name tokens. Binary names compose as (Left_OP_Right), unary
// names as (OP_Operand).
const (
	andToken = "_AND_"
	orToken  = "_OR_"
	xorToken = "_XOR_"
	notToken = "NOT_"
)

///////////////////////////////////////////////////////////////////////////////
// Binary operators
///////////////////////////////////////////////////////////////////////////////

// BinaryOperator combines two predicates through a boolean function. Both
// operands are always evaluated before Calc runs; there is no
// short-circuit, so combining side-effect-free predicates stays
// side-effect free and idempotent.
//
// A nil Calc fails at evaluation time with ErrUnimplemented, not at
// construction: declaring an operator is legal, evaluating an unfinished
// one is not.
type BinaryOperator struct {
	// Operator is the infix naming token, e.g. "_AND_".
	Operator string
	Calc     func(left, right bool) bool
}

// Combine applies the operator to two predicates.
func (op BinaryOperator) Combine(left, right Permission) Permission {
	return binary{op: op, left: left, right: right}
}

type binary struct {
	op          BinaryOperator
	left, right Permission
}

func (p binary) HasPermission(ctx Context) bool {
	left := p.left.HasPermission(ctx)
	right := p.right.HasPermission(ctx)
	if p.op.Calc == nil {
		panic(ErrUnimplemented)
	}
	return p.op.Calc(left, right)
}

func (p binary) Name() string {
	return "(" + p.left.Name() + p.op.Operator + p.right.Name() + ")"
}

func (p binary) Description() string {
	return fmt.Sprintf("\t(%s)\n\t%s\n\t(%s)", p.left.Description(), p.op.Operator, p.right.Description())
}

///////////////////////////////////////////////////////////////////////////////
// Unary operators
///////////////////////////////////////////////////////////////////////////////

// UnaryOperator derives a predicate from a single operand. The operand is
// always evaluated before Calc runs; a nil Calc fails at evaluation time
// with ErrUnimplemented.
type UnaryOperator struct {
	// Operator is the prefix naming token, e.g. "NOT_".
	Operator string
	Calc     func(value bool) bool
}

// Combine applies the operator to a predicate.
func (op UnaryOperator) Combine(operand Permission) Permission {
	return unary{op: op, operand: operand}
}

type unary struct {
	op      UnaryOperator
	operand Permission
}

func (p unary) HasPermission(ctx Context) bool {
	value := p.operand.HasPermission(ctx)
	if p.op.Calc == nil {
		panic(ErrUnimplemented)
	}
	return p.op.Calc(value)
}

func (p unary) Name() string {
	return "(" + p.op.Operator + p.operand.Name() + ")"
}

func (p unary) Description() string {
	return fmt.Sprintf("\t%s(%s)", p.op.Operator, p.operand.Description())
}

///////////////////////////////////////////////////////////////////////////////
// Standard combinators
///////////////////////////////////////////////////////////////////////////////

// And allows the request only when both a and b allow it.
func And(a, b Permission) Permission {
	return BinaryOperator{
		Operator: andToken,
		Calc:     func(left, right bool) bool { return left && right },
	}.Combine(a, b)
}

// Or allows the request when at least one of a and b allows it.
func Or(a, b Permission) Permission {
	return BinaryOperator{
		Operator: orToken,
		Calc:     func(left, right bool) bool { return left || right },
	}.Combine(a, b)
}

// Xor allows the request when exactly one of a and b allows it.
func Xor(a, b Permission) Permission {
	return BinaryOperator{
		Operator: xorToken,
		Calc:     func(left, right bool) bool { return left != right },
	}.Combine(a, b)
}

// Not inverts a predicate.
func Not(a Permission) Permission {
	return UnaryOperator{
		Operator: notToken,
		Calc:     func(value bool) bool { return !value },
	}.Combine(a)
}
