package schema

// NewSchema returns an empty schema that already knows the built-in scalars
// and directives.
func NewSchema(description string) *Schema {
	s := &Schema{
		Types:       make(map[string]*Type, len(builtinScalars)),
		Directives:  make(map[string]*Directive, len(builtinDirectives)),
		Description: description,
	}
	for name, t := range builtinScalars {
		s.Types[name] = t
	}
	for name, d := range builtinDirectives {
		s.Directives[name] = d
	}
	return s
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

// AddType registers t under its name, replacing any type of the same name.
func (s *Schema) AddType(t *Type) *Schema {
	if s.Types == nil {
		s.Types = make(map[string]*Type)
	}
	s.Types[t.Name] = t
	return s
}

// AddDirective registers d under its name.
func (s *Schema) AddDirective(d *Directive) *Schema {
	if s.Directives == nil {
		s.Directives = make(map[string]*Directive)
	}
	s.Directives[d.Name] = d
	return s
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type                 { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddInterface(name string) *Type          { t.Interfaces = append(t.Interfaces, name); return t }
func (t *Type) AddPossibleType(name string) *Type       { t.PossibleTypes = append(t.PossibleTypes, name); return t }
func (t *Type) AddEnumValue(v *EnumValue) *Type         { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type       { t.InputFields = append(t.InputFields, v); return t }
func (t *Type) SetOneOf(oneOf bool) *Type               { t.OneOf = oneOf; return t }
func (t *Type) SetSpecifiedByURL(url string) *Type      { t.SpecifiedByURL = &url; return t }
func (t *Type) SetDescription(description string) *Type { t.Description = description; return t }

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

// NewFieldMap collects fields in declaration order.
func NewFieldMap(fields ...*Field) []*Field {
	out := make([]*Field, 0, len(fields))
	return append(out, fields...)
}

func (f *Field) AddArgument(arg *InputValue) *Field { f.Arguments = append(f.Arguments, arg); return f }
func (f *Field) SetAsync(async bool) *Field         { f.Async = async; return f }

// Argument returns the argument definition with the given name, or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated, f.DeprecationReason = true, reason
	return f
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (v *InputValue) SetDefault(value any) *InputValue { v.DefaultValue = value; return v }

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated, v.DeprecationReason = true, reason
	return v
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (v *EnumValue) Deprecate(reason string) *EnumValue {
	v.IsDeprecated, v.DeprecationReason = true, reason
	return v
}

func NewDirective(name, description string, locations ...string) *Directive {
	return &Directive{Name: name, Description: description, Locations: locations}
}

func (d *Directive) AddArgument(arg *InputValue) *Directive { d.Arguments = append(d.Arguments, arg); return d }
func (d *Directive) SetRepeatable(repeatable bool) *Directive {
	d.IsRepeatable = repeatable
	return d
}
