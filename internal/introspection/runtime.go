// Package introspection answers __schema and __type queries. Wrap extends a
// schema with the introspection types and returns a Runtime that resolves
// them from the schema model, handing every other field to the wrapped
// runtime.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	executor "github.com/hanpama/gqlcore/internal/executor"
	schema "github.com/hanpama/gqlcore/internal/schema"
)

// Runtime serves introspection fields on top of a base runtime.
type Runtime struct {
	base   executor.Runtime
	schema *schema.Schema // extended with introspection types
}

var _ executor.Runtime = (*Runtime)(nil)

// Wrap extends sch with the introspection types and fields. The returned
// runtime must be executed against Schema(), not sch.
func Wrap(base executor.Runtime, sch *schema.Schema) (*Runtime, error) {
	extended, err := extend(sch)
	if err != nil {
		return nil, err
	}
	return &Runtime{base: base, schema: extended}, nil
}

// Schema returns the extended schema.
func (r *Runtime) Schema() *schema.Schema { return r.schema }

// leaf marks a scalar or enum produced by introspection so that
// SerializeLeafValue does not hand it to the base runtime.
type leaf struct{ v any }

func (r *Runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch objectType {
	case "__Schema":
		return r.schemaField(source.(*schema.Schema), field)
	case "__Type":
		return r.typeField(source.(*schema.TypeRef), field, args)
	case "__Field":
		return r.fieldField(source.(*schema.Field), field, args)
	case "__InputValue":
		return r.inputValueField(source.(*schema.InputValue), field)
	case "__EnumValue":
		return enumValueField(source.(*schema.EnumValue), field)
	case "__Directive":
		return r.directiveField(source.(*schema.Directive), field, args)
	case r.schema.QueryType:
		switch field {
		case "__schema":
			return r.schema, nil
		case "__type":
			name, _ := args["name"].(string)
			return r.named(name), nil
		}
	}
	return r.base.ResolveSync(ctx, objectType, field, source, args)
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *Runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	if l, ok := value.(leaf); ok {
		return l.v, nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

// named returns a reference to the named type, or nil when the schema has no
// such type.
func (r *Runtime) named(name string) *schema.TypeRef {
	if r.schema.Type(name) == nil {
		return nil
	}
	return schema.NamedType(name)
}

func (r *Runtime) schemaField(s *schema.Schema, field string) (any, error) {
	switch field {
	case "description":
		return text(s.Description), nil
	case "types":
		names := make([]string, 0, len(s.Types))
		for name := range s.Types {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]*schema.TypeRef, len(names))
		for i, name := range names {
			out[i] = schema.NamedType(name)
		}
		return out, nil
	case "queryType":
		return r.named(s.QueryType), nil
	case "mutationType":
		return r.named(s.MutationType), nil
	case "subscriptionType":
		return r.named(s.SubscriptionType), nil
	case "directives":
		out := make([]*schema.Directive, 0, len(s.Directives))
		for _, d := range s.Directives {
			out = append(out, d)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, nil
	}
	return nil, unknownField("__Schema", field)
}

func (r *Runtime) typeField(ref *schema.TypeRef, field string, args map[string]any) (any, error) {
	if ref.Kind != schema.TypeRefKindNamed {
		switch field {
		case "kind":
			return leaf{string(ref.Kind)}, nil
		case "ofType":
			return ref.OfType, nil
		case "name", "description", "specifiedByURL", "fields", "interfaces",
			"possibleTypes", "enumValues", "inputFields", "isOneOf":
			return nil, nil
		}
		return nil, unknownField("__Type", field)
	}

	t := r.schema.Type(ref.Named)
	if t == nil {
		return nil, fmt.Errorf("introspection: unknown type %s", ref.Named)
	}
	composite := t.Kind == schema.TypeKindObject || t.Kind == schema.TypeKindInterface
	switch field {
	case "kind":
		return leaf{string(t.Kind)}, nil
	case "name":
		return leaf{t.Name}, nil
	case "description":
		return text(t.Description), nil
	case "specifiedByURL":
		if t.Kind != schema.TypeKindScalar || t.SpecifiedByURL == nil {
			return nil, nil
		}
		return leaf{*t.SpecifiedByURL}, nil
	case "fields":
		if !composite {
			return nil, nil
		}
		include := includeDeprecated(args)
		out := []*schema.Field{}
		for _, f := range t.Fields {
			if strings.HasPrefix(f.Name, "__") || (f.IsDeprecated && !include) {
				continue
			}
			out = append(out, f)
		}
		return out, nil
	case "interfaces":
		if !composite {
			return nil, nil
		}
		return r.refs(t.Interfaces), nil
	case "possibleTypes":
		if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			return nil, nil
		}
		return r.refs(t.PossibleTypes), nil
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, nil
		}
		include := includeDeprecated(args)
		out := []*schema.EnumValue{}
		for _, v := range t.EnumValues {
			if v.IsDeprecated && !include {
				continue
			}
			out = append(out, v)
		}
		return out, nil
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, nil
		}
		return inputValues(t.InputFields, includeDeprecated(args)), nil
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil, nil
		}
		return leaf{t.OneOf}, nil
	case "ofType":
		return nil, nil
	}
	return nil, unknownField("__Type", field)
}

func (r *Runtime) refs(names []string) []*schema.TypeRef {
	out := []*schema.TypeRef{}
	for _, name := range names {
		if ref := r.named(name); ref != nil {
			out = append(out, ref)
		}
	}
	return out
}

func (r *Runtime) fieldField(f *schema.Field, field string, args map[string]any) (any, error) {
	switch field {
	case "name":
		return leaf{f.Name}, nil
	case "description":
		return text(f.Description), nil
	case "args":
		return inputValues(f.Arguments, includeDeprecated(args)), nil
	case "type":
		return f.Type, nil
	case "isDeprecated":
		return leaf{f.IsDeprecated}, nil
	case "deprecationReason":
		return reason(f.IsDeprecated, f.DeprecationReason), nil
	}
	return nil, unknownField("__Field", field)
}

func (r *Runtime) inputValueField(v *schema.InputValue, field string) (any, error) {
	switch field {
	case "name":
		return leaf{v.Name}, nil
	case "description":
		return text(v.Description), nil
	case "type":
		return v.Type, nil
	case "defaultValue":
		if v.DefaultValue == nil {
			return nil, nil
		}
		return leaf{schema.ValueLiteral(r.schema, v.Type, v.DefaultValue)}, nil
	case "isDeprecated":
		return leaf{v.IsDeprecated}, nil
	case "deprecationReason":
		return reason(v.IsDeprecated, v.DeprecationReason), nil
	}
	return nil, unknownField("__InputValue", field)
}

func enumValueField(v *schema.EnumValue, field string) (any, error) {
	switch field {
	case "name":
		return leaf{v.Name}, nil
	case "description":
		return text(v.Description), nil
	case "isDeprecated":
		return leaf{v.IsDeprecated}, nil
	case "deprecationReason":
		return reason(v.IsDeprecated, v.DeprecationReason), nil
	}
	return nil, unknownField("__EnumValue", field)
}

func (r *Runtime) directiveField(d *schema.Directive, field string, args map[string]any) (any, error) {
	switch field {
	case "name":
		return leaf{d.Name}, nil
	case "description":
		return text(d.Description), nil
	case "isRepeatable":
		return leaf{d.IsRepeatable}, nil
	case "locations":
		out := make([]leaf, len(d.Locations))
		for i, loc := range d.Locations {
			out[i] = leaf{loc}
		}
		return out, nil
	case "args":
		return inputValues(d.Arguments, includeDeprecated(args)), nil
	}
	return nil, unknownField("__Directive", field)
}

func inputValues(values []*schema.InputValue, include bool) []*schema.InputValue {
	out := []*schema.InputValue{}
	for _, v := range values {
		if v.IsDeprecated && !include {
			continue
		}
		out = append(out, v)
	}
	return out
}

// text maps an empty description to null.
func text(s string) any {
	if s == "" {
		return nil
	}
	return leaf{s}
}

func reason(deprecated bool, why string) any {
	if !deprecated {
		return nil
	}
	return leaf{why}
}

func includeDeprecated(args map[string]any) bool {
	b, _ := args["includeDeprecated"].(bool)
	return b
}

func unknownField(typ, field string) error {
	return fmt.Errorf("introspection: unknown field %s.%s", typ, field)
}
