// Package declare builds executable schemas from code-first declarations.
//
// Each GraphQL type is declared as a Go handle, typically a zero-size struct
// type, whose Definition method returns one of the definition structs below.
// Definitions refer to other types through TypeExpr values obtained from
// Object, Interface, Union, Enum, InputObject, Scalar or Builtin. Handles are
// resolved lazily, so a definition may refer to itself, to a type declared
// later, or to a type that refers back to it.
//
//	type User struct{}
//
//	func (User) Definition(ctx context.Context) (*declare.ObjectDefinition, error) {
//		return &declare.ObjectDefinition{
//			Name: "User",
//			Fields: []*declare.FieldDefinition{
//				{Name: "id", Type: declare.NonNull(declare.Builtin("ID"))},
//				{Name: "friends", Type: declare.List(declare.MustObject(User{}))},
//			},
//		}, nil
//	}
package declare

type ObjectDefinition struct {
	Name        string
	Description string
	Interfaces  []*TypeExpr
	Fields      []*FieldDefinition
}

type InterfaceDefinition struct {
	Name        string
	Description string
	Interfaces  []*TypeExpr
	Fields      []*FieldDefinition
}

type UnionDefinition struct {
	Name        string
	Description string
	Members     []*TypeExpr
}

type EnumDefinition struct {
	Name        string
	Description string
	Values      []*EnumValueDefinition
}

type InputObjectDefinition struct {
	Name        string
	Description string
	Fields      []*InputValueDefinition
	OneOf       bool
}

type ScalarDefinition struct {
	Name           string
	Description    string
	SpecifiedByURL string
}

// FieldDefinition declares a field of an object or interface. Async fields
// are resolved through the runtime's batched path.
type FieldDefinition struct {
	Name              string
	Description       string
	Type              *TypeExpr
	Arguments         []*InputValueDefinition
	Async             bool
	Deprecated        bool
	DeprecationReason string
}

// InputValueDefinition declares an argument or an input object field. A nil
// Default means the value has no default.
type InputValueDefinition struct {
	Name              string
	Description       string
	Type              *TypeExpr
	Default           any
	Deprecated        bool
	DeprecationReason string
}

type EnumValueDefinition struct {
	Name              string
	Description       string
	Deprecated        bool
	DeprecationReason string
}
