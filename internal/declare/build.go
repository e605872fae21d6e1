package declare

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hanpama/gqlcore/internal/schema"
)

// Roots names the operation root types. Query is required.
type Roots struct {
	Query        *TypeExpr
	Mutation     *TypeExpr
	Subscription *TypeExpr
}

// Build resolves every type reachable from roots and extra and assembles the
// executable schema. extra lists types that are not reachable from a root,
// such as object types only returned through an interface.
func Build(ctx context.Context, roots Roots, extra ...*TypeExpr) (*schema.Schema, error) {
	if roots.Query == nil {
		return nil, errors.New("declare: query root type is required")
	}
	b := &builder{
		ctx:    ctx,
		s:      schema.NewSchema(""),
		seen:   make(map[any]string),
		byName: make(map[string]any),
	}
	for name, t := range b.s.Types {
		b.seen[t] = name
		b.byName[name] = t
	}

	rootNames := make([]string, 3)
	for i, root := range []*TypeExpr{roots.Query, roots.Mutation, roots.Subscription} {
		if root == nil {
			continue
		}
		ref, kind, err := b.typeRef(root)
		if err != nil {
			return nil, fmt.Errorf("root type: %w", err)
		}
		if ref.Kind != schema.TypeRefKindNamed || kind != schema.TypeKindObject {
			return nil, fmt.Errorf("root type %s must be an object type", ref)
		}
		rootNames[i] = ref.Named
	}
	b.s.SetQueryType(rootNames[0]).SetMutationType(rootNames[1]).SetSubscriptionType(rootNames[2])

	for _, e := range extra {
		if _, _, err := b.typeRef(e); err != nil {
			return nil, err
		}
	}

	for len(b.queue) > 0 {
		def := b.queue[0]
		b.queue = b.queue[1:]
		t, err := b.buildType(def)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", b.seen[def], err)
		}
		b.s.AddType(t)
	}

	b.fillPossibleTypes()
	return b.s, nil
}

type builder struct {
	ctx    context.Context
	s      *schema.Schema
	seen   map[any]string // definition identity -> type name
	byName map[string]any
	queue  []any
}

// typeRef resolves e, visits the named type it wraps and reports the named
// type's kind.
func (b *builder) typeRef(e *TypeExpr) (*schema.TypeRef, schema.TypeKind, error) {
	if e == nil {
		return nil, "", errors.New("missing type")
	}
	switch e.wrap {
	case wrapList:
		of, kind, err := b.typeRef(e.ofType)
		if err != nil {
			return nil, "", err
		}
		return schema.ListType(of), kind, nil
	case wrapNonNull:
		of, kind, err := b.typeRef(e.ofType)
		if err != nil {
			return nil, "", err
		}
		return schema.NonNullType(of), kind, nil
	}
	if e.named == nil {
		return nil, "", errors.New("missing type")
	}
	def, err := e.named.resolve(b.ctx)
	if err != nil {
		return nil, "", err
	}
	name, kind := describe(def)
	if err := b.visit(def, name, e.named.handleName()); err != nil {
		return nil, "", err
	}
	return schema.NamedType(name), kind, nil
}

func (b *builder) visit(def any, name, handle string) error {
	if _, ok := b.seen[def]; ok {
		return nil
	}
	if name == "" {
		return fmt.Errorf("%s declares a type without a name", handle)
	}
	if _, ok := b.byName[name]; ok {
		return fmt.Errorf("type name %q is declared more than once (again by %s)", name, handle)
	}
	b.seen[def] = name
	b.byName[name] = def
	b.queue = append(b.queue, def)
	return nil
}

func describe(def any) (string, schema.TypeKind) {
	switch d := def.(type) {
	case *schema.Type:
		return d.Name, d.Kind
	case *ObjectDefinition:
		return d.Name, schema.TypeKindObject
	case *InterfaceDefinition:
		return d.Name, schema.TypeKindInterface
	case *UnionDefinition:
		return d.Name, schema.TypeKindUnion
	case *EnumDefinition:
		return d.Name, schema.TypeKindEnum
	case *InputObjectDefinition:
		return d.Name, schema.TypeKindInputObject
	case *ScalarDefinition:
		return d.Name, schema.TypeKindScalar
	}
	return "", ""
}

func (b *builder) buildType(def any) (*schema.Type, error) {
	name, kind := describe(def)
	switch d := def.(type) {
	case *ObjectDefinition:
		t := schema.NewType(name, kind, d.Description)
		return t, b.buildComposite(t, d.Interfaces, d.Fields)
	case *InterfaceDefinition:
		t := schema.NewType(name, kind, d.Description)
		return t, b.buildComposite(t, d.Interfaces, d.Fields)
	case *UnionDefinition:
		t := schema.NewType(name, kind, d.Description)
		if len(d.Members) == 0 {
			return nil, errors.New("union has no members")
		}
		for _, m := range d.Members {
			ref, mk, err := b.typeRef(m)
			if err != nil {
				return nil, err
			}
			if ref.Kind != schema.TypeRefKindNamed || mk != schema.TypeKindObject {
				return nil, fmt.Errorf("union member %s is not an object type", ref)
			}
			t.AddPossibleType(ref.Named)
		}
		return t, nil
	case *EnumDefinition:
		t := schema.NewType(name, kind, d.Description)
		if len(d.Values) == 0 {
			return nil, errors.New("enum has no values")
		}
		for _, v := range d.Values {
			ev := schema.NewEnumValue(v.Name, v.Description)
			if v.Deprecated {
				ev.Deprecate(reason(v.DeprecationReason))
			}
			t.AddEnumValue(ev)
		}
		return t, nil
	case *InputObjectDefinition:
		t := schema.NewType(name, kind, d.Description).SetOneOf(d.OneOf)
		for _, f := range d.Fields {
			iv, err := b.inputValue(f)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			t.AddInputField(iv)
		}
		return t, nil
	case *ScalarDefinition:
		t := schema.NewType(name, kind, d.Description)
		if d.SpecifiedByURL != "" {
			t.SetSpecifiedByURL(d.SpecifiedByURL)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unsupported definition %T", def)
}

func (b *builder) buildComposite(t *schema.Type, ifaces []*TypeExpr, fields []*FieldDefinition) error {
	for _, i := range ifaces {
		ref, kind, err := b.typeRef(i)
		if err != nil {
			return err
		}
		if ref.Kind != schema.TypeRefKindNamed || kind != schema.TypeKindInterface {
			return fmt.Errorf("%s is not an interface type", ref)
		}
		t.AddInterface(ref.Named)
	}
	if len(fields) == 0 {
		return errors.New("type has no fields")
	}
	for _, fd := range fields {
		f, err := b.field(fd)
		if err != nil {
			return fmt.Errorf("field %s: %w", fd.Name, err)
		}
		t.AddField(f)
	}
	return nil
}

func (b *builder) field(fd *FieldDefinition) (*schema.Field, error) {
	ref, kind, err := b.typeRef(fd.Type)
	if err != nil {
		return nil, err
	}
	if kind == schema.TypeKindInputObject {
		return nil, fmt.Errorf("input type %s cannot be used as a field type", ref)
	}
	f := schema.NewField(fd.Name, fd.Description, ref).SetAsync(fd.Async)
	if fd.Deprecated {
		f.Deprecate(reason(fd.DeprecationReason))
	}
	for _, a := range fd.Arguments {
		iv, err := b.inputValue(a)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		f.AddArgument(iv)
	}
	return f, nil
}

func (b *builder) inputValue(d *InputValueDefinition) (*schema.InputValue, error) {
	ref, kind, err := b.typeRef(d.Type)
	if err != nil {
		return nil, err
	}
	switch kind {
	case schema.TypeKindScalar, schema.TypeKindEnum, schema.TypeKindInputObject:
	default:
		return nil, fmt.Errorf("output type %s cannot be used as an input type", ref)
	}
	iv := schema.NewInputValue(d.Name, d.Description, ref).SetDefault(d.Default)
	if d.Deprecated {
		iv.Deprecate(reason(d.DeprecationReason))
	}
	return iv, nil
}

// fillPossibleTypes records every object type under the interfaces it implements.
func (b *builder) fillPossibleTypes() {
	for _, t := range b.s.Types {
		if t.Kind != schema.TypeKindObject {
			continue
		}
		for _, name := range t.Interfaces {
			if iface := b.s.Types[name]; iface != nil {
				iface.AddPossibleType(t.Name)
			}
		}
	}
	for _, t := range b.s.Types {
		sort.Strings(t.PossibleTypes)
	}
}

func reason(r string) string {
	if r == "" {
		return schema.DefaultDeprecationReason
	}
	return r
}
