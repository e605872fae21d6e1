package schema

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// Render produces SDL from the Schema. Types and directives are emitted in
// name order and built-ins are left out, so the output loads back through
// BuildFromSDL.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	formatter.NewFormatter(&b).FormatSchemaDocument(toAST(s))
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func toAST(s *Schema) *ast.SchemaDocument {
	doc := &ast.SchemaDocument{}

	var ops ast.OperationTypeDefinitionList
	for _, root := range []struct {
		op   ast.Operation
		name string
	}{
		{ast.Query, s.QueryType},
		{ast.Mutation, s.MutationType},
		{ast.Subscription, s.SubscriptionType},
	} {
		if root.name != "" {
			ops = append(ops, &ast.OperationTypeDefinition{Operation: root.op, Type: root.name})
		}
	}
	if len(ops) > 0 {
		doc.Schema = ast.SchemaDefinitionList{{Description: s.Description, OperationTypes: ops}}
	}

	names := make([]string, 0, len(s.Types))
	for name, t := range s.Types {
		if !IsBuiltin(t) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Definitions = append(doc.Definitions, definitionToAST(s, s.Types[name]))
	}

	names = names[:0]
	for name, d := range s.Directives {
		if !isBuiltinDirective(d) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		d := s.Directives[name]
		def := &ast.DirectiveDefinition{
			Description:  d.Description,
			Name:         d.Name,
			IsRepeatable: d.IsRepeatable,
		}
		for _, loc := range d.Locations {
			def.Locations = append(def.Locations, ast.DirectiveLocation(loc))
		}
		for _, arg := range d.Arguments {
			def.Arguments = append(def.Arguments, argumentToAST(s, arg))
		}
		doc.Directives = append(doc.Directives, def)
	}
	return doc
}

func definitionToAST(s *Schema, t *Type) *ast.Definition {
	def := &ast.Definition{Description: t.Description, Name: t.Name}
	switch t.Kind {
	case TypeKindObject, TypeKindInterface:
		def.Kind = ast.Object
		if t.Kind == TypeKindInterface {
			def.Kind = ast.Interface
		}
		def.Interfaces = append(def.Interfaces, t.Interfaces...)
		for _, f := range t.Fields {
			fd := &ast.FieldDefinition{
				Description: f.Description,
				Name:        f.Name,
				Type:        typeRefToAST(f.Type),
				Directives:  deprecationToAST(f.IsDeprecated, f.DeprecationReason),
			}
			if f.Async {
				fd.Directives = append(fd.Directives, &ast.Directive{Name: "async"})
			}
			for _, arg := range f.Arguments {
				fd.Arguments = append(fd.Arguments, argumentToAST(s, arg))
			}
			def.Fields = append(def.Fields, fd)
		}
	case TypeKindUnion:
		def.Kind = ast.Union
		def.Types = append(def.Types, t.PossibleTypes...)
	case TypeKindEnum:
		def.Kind = ast.Enum
		for _, v := range t.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Description: v.Description,
				Name:        v.Name,
				Directives:  deprecationToAST(v.IsDeprecated, v.DeprecationReason),
			})
		}
	case TypeKindInputObject:
		def.Kind = ast.InputObject
		if t.OneOf {
			def.Directives = append(def.Directives, &ast.Directive{Name: "oneOf"})
		}
		for _, v := range t.InputFields {
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Description:  v.Description,
				Name:         v.Name,
				Type:         typeRefToAST(v.Type),
				DefaultValue: valueToAST(s, v.Type, v.DefaultValue),
				Directives:   deprecationToAST(v.IsDeprecated, v.DeprecationReason),
			})
		}
	default:
		def.Kind = ast.Scalar
		if t.SpecifiedByURL != nil {
			def.Directives = append(def.Directives, &ast.Directive{
				Name:      "specifiedBy",
				Arguments: ast.ArgumentList{{Name: "url", Value: &ast.Value{Kind: ast.StringValue, Raw: *t.SpecifiedByURL}}},
			})
		}
	}
	return def
}

func argumentToAST(s *Schema, v *InputValue) *ast.ArgumentDefinition {
	return &ast.ArgumentDefinition{
		Description:  v.Description,
		Name:         v.Name,
		Type:         typeRefToAST(v.Type),
		DefaultValue: valueToAST(s, v.Type, v.DefaultValue),
		Directives:   deprecationToAST(v.IsDeprecated, v.DeprecationReason),
	}
}

func deprecationToAST(deprecated bool, reason string) ast.DirectiveList {
	if !deprecated {
		return nil
	}
	d := &ast.Directive{Name: "deprecated"}
	if reason != "" && reason != DefaultDeprecationReason {
		d.Arguments = ast.ArgumentList{{Name: "reason", Value: &ast.Value{Kind: ast.StringValue, Raw: reason}}}
	}
	return ast.DirectiveList{d}
}

func typeRefToAST(t *TypeRef) *ast.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeRefKindNonNull:
		inner := typeRefToAST(t.OfType)
		inner.NonNull = true
		return inner
	case TypeRefKindList:
		return &ast.Type{Elem: typeRefToAST(t.OfType)}
	default:
		return &ast.Type{NamedType: t.Named}
	}
}

// ValueLiteral formats value as a GraphQL literal of type t, e.g. the
// defaultValue of an argument.
func ValueLiteral(s *Schema, t *TypeRef, value any) string {
	if value == nil {
		return "null"
	}
	return literal(s, t, value).String()
}

// valueToAST renders a default value as a literal of type t. Strings become
// enum literals when t names an enum.
func valueToAST(s *Schema, t *TypeRef, value any) *ast.Value {
	if value == nil {
		return nil
	}
	return literal(s, t, value)
}

func literal(s *Schema, t *TypeRef, value any) *ast.Value {
	for t != nil && t.Kind == TypeRefKindNonNull {
		t = t.OfType
	}
	switch v := value.(type) {
	case nil:
		return &ast.Value{Kind: ast.NullValue, Raw: "null"}
	case string:
		if named := s.Type(t.GetNamedType()); named != nil && named.Kind == TypeKindEnum {
			return &ast.Value{Kind: ast.EnumValue, Raw: v}
		}
		return &ast.Value{Kind: ast.StringValue, Raw: v}
	case bool:
		return &ast.Value{Kind: ast.BooleanValue, Raw: strconv.FormatBool(v)}
	case int:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.Itoa(v)}
	case int32:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.FormatInt(int64(v), 10)}
	case int64:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.FormatInt(v, 10)}
	case *big.Int:
		return &ast.Value{Kind: ast.IntValue, Raw: v.String()}
	case float32:
		return &ast.Value{Kind: ast.FloatValue, Raw: formatFloat(float64(v))}
	case float64:
		return &ast.Value{Kind: ast.FloatValue, Raw: formatFloat(v)}
	case []any:
		var elem *TypeRef
		if t != nil && t.Kind == TypeRefKindList {
			elem = t.OfType
		}
		list := &ast.Value{Kind: ast.ListValue}
		for _, item := range v {
			list.Children = append(list.Children, &ast.ChildValue{Value: literal(s, elem, item)})
		}
		return list
	case map[string]any:
		var input *Type
		if t != nil {
			input = s.Type(t.GetNamedType())
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := &ast.Value{Kind: ast.ObjectValue}
		for _, k := range keys {
			var ft *TypeRef
			if input != nil {
				if f := input.InputField(k); f != nil {
					ft = f.Type
				}
			}
			obj.Children = append(obj.Children, &ast.ChildValue{Name: k, Value: literal(s, ft, v[k])})
		}
		return obj
	default:
		return &ast.Value{Kind: ast.StringValue, Raw: fmt.Sprint(v)}
	}
}

// formatFloat keeps a decimal point so the literal parses back as a Float.
func formatFloat(f float64) string {
	out := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(out, ".eE") {
		out += ".0"
	}
	return out
}
