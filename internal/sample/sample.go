// Package sample declares a small bookshop schema in code and ships a JSON
// document to serve it from. It backs the CLI's -sample flag.
//
// Book and Author refer to each other; the references resolve lazily through
// the declare registries, so declaration order does not matter.
package sample

import (
	"context"
	_ "embed"

	"github.com/hanpama/gqlcore/internal/declare"
	"github.com/hanpama/gqlcore/internal/schema"
)

// Data is the root value of the sample schema.
//
//go:embed data.json
var Data []byte

type (
	Query  struct{}
	Book   struct{}
	Author struct{}
	Node   struct{}
	Genre  struct{}
	Date   struct{}
)

// Schema builds the sample schema.
func Schema(ctx context.Context) (*schema.Schema, error) {
	return declare.Build(ctx, declare.Roots{Query: declare.MustObject(Query{})})
}

func id() *declare.TypeExpr { return declare.NonNull(declare.Builtin("ID")) }

func (Query) Definition(context.Context) (*declare.ObjectDefinition, error) {
	return &declare.ObjectDefinition{
		Name: "Query",
		Fields: []*declare.FieldDefinition{
			{Name: "books", Type: declare.NonNull(declare.List(declare.NonNull(declare.MustObject(Book{})))), Async: true},
			{Name: "featured", Type: declare.MustInterface(Node{}), Description: "Editor's pick, a book or an author."},
			{Name: "genres", Type: declare.List(declare.MustEnum(Genre{}))},
		},
	}, nil
}

func (Book) Definition(context.Context) (*declare.ObjectDefinition, error) {
	return &declare.ObjectDefinition{
		Name:       "Book",
		Interfaces: []*declare.TypeExpr{declare.MustInterface(Node{})},
		Fields: []*declare.FieldDefinition{
			{Name: "id", Type: id()},
			{Name: "title", Type: declare.NonNull(declare.Builtin("String"))},
			{Name: "genre", Type: declare.MustEnum(Genre{})},
			{Name: "published", Type: declare.MustScalar(Date{})},
			{Name: "author", Type: declare.MustObject(Author{}), Async: true},
		},
	}, nil
}

func (Author) Definition(context.Context) (*declare.ObjectDefinition, error) {
	return &declare.ObjectDefinition{
		Name:       "Author",
		Interfaces: []*declare.TypeExpr{declare.MustInterface(Node{})},
		Fields: []*declare.FieldDefinition{
			{Name: "id", Type: id()},
			{Name: "name", Type: declare.NonNull(declare.Builtin("String"))},
			{Name: "books", Type: declare.List(declare.NonNull(declare.MustObject(Book{}))), Async: true},
		},
	}, nil
}

func (Node) Definition(context.Context) (*declare.InterfaceDefinition, error) {
	return &declare.InterfaceDefinition{
		Name:   "Node",
		Fields: []*declare.FieldDefinition{{Name: "id", Type: id()}},
	}, nil
}

func (Genre) Definition(context.Context) (*declare.EnumDefinition, error) {
	return &declare.EnumDefinition{Name: "Genre", Values: []*declare.EnumValueDefinition{
		{Name: "FICTION"},
		{Name: "REFERENCE"},
		{Name: "POETRY", Deprecated: true, DeprecationReason: "shelved with FICTION"},
	}}, nil
}

func (Date) Definition(context.Context) (*declare.ScalarDefinition, error) {
	return &declare.ScalarDefinition{Name: "Date", SpecifiedByURL: "https://tools.ietf.org/html/rfc3339"}, nil
}
