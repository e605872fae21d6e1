package declare

import (
	"context"
	"fmt"

	"github.com/hanpama/gqlcore/internal/definition"
	"github.com/hanpama/gqlcore/internal/schema"
)

// One registry per definition kind, so every mention of a handle shares the
// same cache cell.
var (
	objects      definition.Registry[ObjectDefinition]
	interfaces   definition.Registry[InterfaceDefinition]
	unions       definition.Registry[UnionDefinition]
	enums        definition.Registry[EnumDefinition]
	inputObjects definition.Registry[InputObjectDefinition]
	scalars      definition.Registry[ScalarDefinition]
)

// TypeExpr is a possibly wrapped reference to a declared type.
type TypeExpr struct {
	wrap   wrapping
	ofType *TypeExpr
	named  namedRef
}

type wrapping int

const (
	wrapNone wrapping = iota
	wrapList
	wrapNonNull
)

// namedRef resolves to a definition pointer or a built-in *schema.Type.
type namedRef interface {
	resolve(ctx context.Context) (any, error)
	handleName() string
}

type resolverRef[T any] struct {
	r definition.Resolver[T]
}

func (n resolverRef[T]) resolve(ctx context.Context) (any, error) {
	d, err := n.r.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (n resolverRef[T]) handleName() string { return n.r.QualifiedName() }

type builtinRef struct {
	t *schema.Type
}

func (b builtinRef) resolve(context.Context) (any, error) { return b.t, nil }
func (b builtinRef) handleName() string                   { return b.t.Name }

func named[T any](reg *definition.Registry[T], handle any) (*TypeExpr, error) {
	r, err := reg.Resolver(handle)
	if err != nil {
		return nil, err
	}
	return &TypeExpr{named: resolverRef[T]{r: r}}, nil
}

// Object refers to the object type declared by handle.
func Object(handle any) (*TypeExpr, error) { return named(&objects, handle) }

// Interface refers to the interface type declared by handle.
func Interface(handle any) (*TypeExpr, error) { return named(&interfaces, handle) }

// Union refers to the union type declared by handle.
func Union(handle any) (*TypeExpr, error) { return named(&unions, handle) }

// Enum refers to the enum type declared by handle.
func Enum(handle any) (*TypeExpr, error) { return named(&enums, handle) }

// InputObject refers to the input object type declared by handle.
func InputObject(handle any) (*TypeExpr, error) { return named(&inputObjects, handle) }

// Scalar refers to the custom scalar declared by handle.
func Scalar(handle any) (*TypeExpr, error) { return named(&scalars, handle) }

func must(e *TypeExpr, err error) *TypeExpr {
	if err != nil {
		panic(err)
	}
	return e
}

func MustObject(handle any) *TypeExpr      { return must(Object(handle)) }
func MustInterface(handle any) *TypeExpr   { return must(Interface(handle)) }
func MustUnion(handle any) *TypeExpr       { return must(Union(handle)) }
func MustEnum(handle any) *TypeExpr        { return must(Enum(handle)) }
func MustInputObject(handle any) *TypeExpr { return must(InputObject(handle)) }
func MustScalar(handle any) *TypeExpr      { return must(Scalar(handle)) }

// Builtin refers to one of the built-in scalars: String, Int, Float, Boolean or ID.
func Builtin(name string) *TypeExpr {
	t := schema.BuiltinScalar(name)
	if t == nil {
		panic(fmt.Sprintf("declare: %q is not a built-in scalar", name))
	}
	return &TypeExpr{named: builtinRef{t: t}}
}

// NonNull wraps e in a non-null type.
func NonNull(e *TypeExpr) *TypeExpr {
	if e != nil && e.wrap == wrapNonNull {
		return e
	}
	return &TypeExpr{wrap: wrapNonNull, ofType: e}
}

// List wraps e in a list type.
func List(e *TypeExpr) *TypeExpr { return &TypeExpr{wrap: wrapList, ofType: e} }
