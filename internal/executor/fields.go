package executor

import (
	language "github.com/hanpama/gqlcore/internal/language"
	schema "github.com/hanpama/gqlcore/internal/schema"
)

// fieldGroup is the set of field nodes sharing one response name.
type fieldGroup struct {
	name  string
	nodes []*language.Field
}

// collectFields groups the fields of sel that apply to objType by response
// name, in first-appearance order. Each named fragment is expanded once.
func (r *request) collectFields(objType *schema.Type, sel language.SelectionSet) []*fieldGroup {
	var groups []*fieldGroup
	index := map[string]*fieldGroup{}
	visited := map[string]bool{}

	var walk func(language.SelectionSet)
	walk = func(sel language.SelectionSet) {
		for _, s := range sel {
			switch s := s.(type) {
			case *language.Field:
				if !r.included(s.Directives) {
					continue
				}
				name := s.Alias
				if name == "" {
					name = s.Name
				}
				if g, ok := index[name]; ok {
					g.nodes = append(g.nodes, s)
					continue
				}
				g := &fieldGroup{name: name, nodes: []*language.Field{s}}
				index[name] = g
				groups = append(groups, g)
			case *language.InlineFragment:
				if r.included(s.Directives) && r.applies(objType, s.TypeCondition) {
					walk(s.SelectionSet)
				}
			case *language.FragmentSpread:
				if visited[s.Name] || !r.included(s.Directives) {
					continue
				}
				visited[s.Name] = true
				frag := r.doc.Fragments.ForName(s.Name)
				if frag == nil || !r.applies(objType, frag.TypeCondition) || !r.included(frag.Directives) {
					continue
				}
				walk(frag.SelectionSet)
			}
		}
	}
	walk(sel)
	return groups
}

// applies reports whether a fragment with the given type condition applies
// to objType.
func (r *request) applies(objType *schema.Type, typeCondition string) bool {
	if typeCondition == "" {
		return true
	}
	return r.schema.IsPossibleType(typeCondition, objType.Name)
}

// included evaluates @skip and @include. A condition that is missing or
// not a boolean leaves the node in.
func (r *request) included(directives language.DirectiveList) bool {
	if skip, ok := r.condition(directives, "skip"); ok && skip {
		return false
	}
	if include, ok := r.condition(directives, "include"); ok && !include {
		return false
	}
	return true
}

func (r *request) condition(directives language.DirectiveList, name string) (value, ok bool) {
	d := directives.ForName(name)
	if d == nil {
		return false, false
	}
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	v, _ := valueFromASTWithVars(arg.Value, r.vars)
	value, ok = v.(bool)
	return value, ok
}
