package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"

	language "github.com/hanpama/gqlcore/internal/language"
)

// extraDirectives are understood by the executor but absent from the parser's prelude.
var extraDirectives = &ast.Source{
	Name:    "gqlcore-directives.graphql",
	Input:   "directive @async on FIELD_DEFINITION\n",
	BuiltIn: true,
}

// BuildFromSDL parses and validates a schema document and converts it into
// the executor's model. A field carrying @async is marked Async.
func BuildFromSDL(sdl string) (*Schema, error) {
	return BuildFromSources(&ast.Source{Name: "schema.graphql", Input: sdl})
}

// BuildFromSources is BuildFromSDL over several named documents, so that
// validation errors point at the file they came from.
func BuildFromSources(sources ...*ast.Source) (*Schema, error) {
	loaded, err := language.LoadSchema(append([]*ast.Source{extraDirectives}, sources...)...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return fromAST(loaded), nil
}

func fromAST(src *ast.Schema) *Schema {
	s := NewSchema(src.Description)
	if src.Query != nil {
		s.SetQueryType(src.Query.Name)
	}
	if src.Mutation != nil {
		s.SetMutationType(src.Mutation.Name)
	}
	if src.Subscription != nil {
		s.SetSubscriptionType(src.Subscription.Name)
	}

	for name, def := range src.Types {
		if isBuiltIn(def.Position) || strings.HasPrefix(name, "__") {
			continue
		}
		s.AddType(typeFromAST(src, def))
	}
	for name, def := range src.Directives {
		if isBuiltIn(def.Position) {
			continue
		}
		d := NewDirective(name, def.Description)
		d.IsRepeatable = def.IsRepeatable
		for _, loc := range def.Locations {
			d.Locations = append(d.Locations, string(loc))
		}
		for _, arg := range def.Arguments {
			d.AddArgument(argumentFromAST(arg))
		}
		s.AddDirective(d)
	}
	return s
}

// IntrospectionTypes returns __Schema, __Type and the other introspection
// types, converted from the parser's prelude.
func IntrospectionTypes() ([]*Type, error) {
	doc, err := language.ParseSchema(validator.Prelude.Name, validator.Prelude.Input)
	if err != nil {
		return nil, fmt.Errorf("parse prelude: %w", err)
	}
	var out []*Type
	for _, def := range doc.Definitions {
		if strings.HasPrefix(def.Name, "__") {
			out = append(out, typeFromAST(nil, def))
		}
	}
	return out, nil
}

func typeFromAST(src *ast.Schema, def *ast.Definition) *Type {
	t := NewType(def.Name, kindFromAST(def.Kind), def.Description)
	switch def.Kind {
	case ast.Object, ast.Interface:
		t.Interfaces = append(t.Interfaces, def.Interfaces...)
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			field := NewField(f.Name, f.Description, typeRefFromAST(f.Type))
			for _, arg := range f.Arguments {
				field.AddArgument(argumentFromAST(arg))
			}
			field.Async = f.Directives.ForName("async") != nil
			field.IsDeprecated, field.DeprecationReason = deprecation(f.Directives)
			t.AddField(field)
		}
	case ast.InputObject:
		t.OneOf = def.Directives.ForName("oneOf") != nil
		for _, f := range def.Fields {
			v := NewInputValue(f.Name, f.Description, typeRefFromAST(f.Type))
			v.DefaultValue = language.ValueToGo(f.DefaultValue)
			v.IsDeprecated, v.DeprecationReason = deprecation(f.Directives)
			t.AddInputField(v)
		}
	case ast.Enum:
		for _, ev := range def.EnumValues {
			v := NewEnumValue(ev.Name, ev.Description)
			v.IsDeprecated, v.DeprecationReason = deprecation(ev.Directives)
			t.AddEnumValue(v)
		}
	case ast.Scalar:
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				t.SetSpecifiedByURL(arg.Value.Raw)
			}
		}
	}
	if src != nil && (def.Kind == ast.Interface || def.Kind == ast.Union) {
		for _, pt := range src.GetPossibleTypes(def) {
			t.AddPossibleType(pt.Name)
		}
		sort.Strings(t.PossibleTypes)
	}
	return t
}

func argumentFromAST(arg *ast.ArgumentDefinition) *InputValue {
	v := NewInputValue(arg.Name, arg.Description, typeRefFromAST(arg.Type))
	v.DefaultValue = language.ValueToGo(arg.DefaultValue)
	v.IsDeprecated, v.DeprecationReason = deprecation(arg.Directives)
	return v
}

func deprecation(directives ast.DirectiveList) (bool, string) {
	d := directives.ForName("deprecated")
	if d == nil {
		return false, ""
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return true, arg.Value.Raw
	}
	return true, DefaultDeprecationReason
}

func kindFromAST(kind ast.DefinitionKind) TypeKind {
	switch kind {
	case ast.Object:
		return TypeKindObject
	case ast.Interface:
		return TypeKindInterface
	case ast.Union:
		return TypeKindUnion
	case ast.Enum:
		return TypeKindEnum
	case ast.InputObject:
		return TypeKindInputObject
	default:
		return TypeKindScalar
	}
}

func typeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(typeRefFromAST(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

func isBuiltIn(pos *ast.Position) bool {
	return pos != nil && pos.Src != nil && pos.Src.BuiltIn
}
