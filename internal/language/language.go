package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses an executable document. Field positions in the returned
// document refer back to source; see SpanOf.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchema parses a schema document without validating it.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates schema sources together with the parser's
// prelude of built-in types and directives.
func LoadSchema(sources ...*Source) (*Schema, error) {
	s, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SourceText returns the query text a parsed document was built from, or ""
// when the document carries no source (for example when built by hand).
func SourceText(doc *QueryDocument) string {
	if doc == nil {
		return ""
	}
	if doc.Position != nil && doc.Position.Src != nil {
		return doc.Position.Src.Input
	}
	for _, op := range doc.Operations {
		if op.Position != nil && op.Position.Src != nil {
			return op.Position.Src.Input
		}
	}
	for _, f := range doc.Fragments {
		if f.Position != nil && f.Position.Src != nil {
			return f.Position.Src.Input
		}
	}
	return ""
}
