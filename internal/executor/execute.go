package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/hanpama/gqlcore/internal/language"
	schema "github.com/hanpama/gqlcore/internal/schema"
)

// request holds the state of one operation execution.
type request struct {
	ctx     context.Context
	runtime Runtime
	schema  *schema.Schema
	doc     *language.QueryDocument
	query   string
	vars    map[string]any

	errors []ExecutionError
	queue  []*deferredField
}

// slot is a nullable position in the response. Clearing a slot writes null
// at that position and cancels every deferred field beneath it.
type slot struct {
	parent  *slot
	clear   func()
	cleared bool
}

func (s *slot) live() bool {
	for ; s != nil; s = s.parent {
		if s.cleared {
			return false
		}
	}
	return true
}

func (s *slot) nullify() {
	if s.cleared {
		return
	}
	s.cleared = true
	s.clear()
}

// deferredField is an async field waiting for the next batch. within is the
// nearest nullable position enclosing it.
type deferredField struct {
	task   AsyncResolveTask
	typ    *schema.TypeRef
	nodes  []*language.Field
	path   Path
	within *slot
	store  func(any)
}

// execute runs the root selection set and then drains async fields one
// depth at a time. It returns nil data when a non-null violation reaches
// the root.
func (r *request) execute(rootType *schema.Type, sel language.SelectionSet, initialValue any) any {
	data := map[string]any{}
	root := &slot{}
	root.clear = func() {}

	if !r.executeFields(rootType, sel, initialValue, nil, root, data) {
		root.nullify()
	}
	for len(r.queue) > 0 && root.live() {
		r.flush()
	}
	if root.cleared {
		return nil
	}
	return data
}

// flush resolves every queued field with one BatchResolveAsync call. Fields
// queued while completing the results form the next depth.
func (r *request) flush() {
	pending := r.queue
	r.queue = nil

	batch := make([]*deferredField, 0, len(pending))
	for _, d := range pending {
		if d.within.live() {
			batch = append(batch, d)
		}
	}
	if len(batch) == 0 {
		return
	}

	tasks := make([]AsyncResolveTask, len(batch))
	for i, d := range batch {
		tasks[i] = d.task
	}
	results := r.runtime.BatchResolveAsync(r.ctx, tasks)

	for i, d := range batch {
		if !d.within.live() {
			continue
		}
		var res AsyncResolveResult
		if i < len(results) {
			res = results[i]
		} else {
			res.Error = fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))
		}
		r.settle(d, res)
	}
}

func (r *request) settle(d *deferredField, res AsyncResolveResult) {
	if res.Error != nil {
		r.fieldError(d.nodes, d.path, res.Error)
		if d.typ.IsNonNull() {
			d.within.nullify()
		}
		return
	}
	if !r.place(d.typ, d.nodes, res.Value, d.path, d.within, d.store) {
		d.within.nullify()
	}
}

// executeFields writes the selected fields of source into out. It reports
// false when a non-null field came back null, leaving the object itself
// null.
func (r *request) executeFields(objType *schema.Type, sel language.SelectionSet, source any, path Path, within *slot, out map[string]any) bool {
	for _, group := range r.collectFields(objType, sel) {
		fieldPath := appendPath(path, group.name)
		name := group.nodes[0].Name
		if name == "__typename" {
			out[group.name] = objType.Name
			continue
		}
		def := objType.Field(name)
		if def == nil {
			r.fieldError(group.nodes, fieldPath, fmt.Errorf("Cannot query field '%s' on type '%s'", name, objType.Name))
			continue
		}
		key := group.name
		store := func(v any) { out[key] = v }
		if !r.executeField(objType, def, group.nodes, source, fieldPath, within, store) {
			return false
		}
	}
	return true
}

func (r *request) executeField(objType *schema.Type, def *schema.Field, nodes []*language.Field, source any, path Path, within *slot, store func(any)) bool {
	nonNull := def.Type.IsNonNull()
	args, ok := coerceArgumentValues(def, nodes[0], r, path)
	if !ok {
		store(nil)
		return !nonNull
	}

	if def.Async {
		store(nil)
		r.queue = append(r.queue, &deferredField{
			task:   AsyncResolveTask{ObjectType: objType.Name, Field: def.Name, Source: source, Args: args},
			typ:    def.Type,
			nodes:  nodes,
			path:   path,
			within: within,
			store:  store,
		})
		return true
	}

	value, err := r.runtime.ResolveSync(r.ctx, objType.Name, def.Name, source, args)
	if err != nil {
		r.fieldError(nodes, path, err)
		store(nil)
		return !nonNull
	}
	return r.place(def.Type, nodes, value, path, within, store)
}

// place completes value at a response position and stores the result. It
// reports false when the position is non-null and ended up null, so the
// caller must null the nearest nullable ancestor.
func (r *request) place(t *schema.TypeRef, nodes []*language.Field, value any, path Path, within *slot, store func(any)) bool {
	if t.IsNonNull() {
		if isNullish(value) {
			r.fieldError(nodes, path, fmt.Errorf("Cannot return null for non-nullable field %s", path))
			return false
		}
		v, ok := r.complete(t.Unwrap(), nodes, value, path, within)
		if !ok {
			return false
		}
		if isNullish(v) {
			r.fieldError(nodes, path, fmt.Errorf("Cannot return null for non-nullable field %s", path))
			return false
		}
		store(v)
		return true
	}

	if isNullish(value) {
		store(nil)
		return true
	}
	here := &slot{parent: within, clear: func() { store(nil) }}
	v, ok := r.complete(t, nodes, value, path, here)
	if !ok {
		here.cleared = true
		store(nil)
		return true
	}
	store(v)
	return true
}

// complete converts a non-null resolved value of the nullable type t into
// its response form.
func (r *request) complete(t *schema.TypeRef, nodes []*language.Field, value any, path Path, within *slot) (any, bool) {
	if t.IsList() {
		return r.completeList(t.Unwrap(), nodes, value, path, within)
	}

	named := r.schema.Type(t.Named)
	if named == nil {
		r.fieldError(nodes, path, fmt.Errorf("Unknown type: %s", t.Named))
		return nil, false
	}
	switch named.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		v, err := r.runtime.SerializeLeafValue(r.ctx, named.Name, value)
		if err != nil {
			r.fieldError(nodes, path, err)
			return nil, false
		}
		return v, true
	case schema.TypeKindObject:
		return r.completeObject(named, nodes, value, path, within)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		typeName, err := r.runtime.ResolveType(r.ctx, named.Name, value)
		if err != nil {
			r.fieldError(nodes, path, err)
			return nil, false
		}
		concrete := r.schema.Type(typeName)
		if concrete == nil || concrete.Kind != schema.TypeKindObject {
			r.fieldError(nodes, path, fmt.Errorf("Abstract type %s must resolve to an Object type at runtime. Got: %s", named.Name, typeName))
			return nil, false
		}
		if !r.schema.IsPossibleType(named.Name, typeName) {
			r.fieldError(nodes, path, fmt.Errorf("Runtime Object type %s is not a possible type for %s", typeName, named.Name))
			return nil, false
		}
		return r.completeObject(concrete, nodes, value, path, within)
	}
	r.fieldError(nodes, path, fmt.Errorf("Cannot complete value of unexpected type: %s", named.Kind))
	return nil, false
}

func (r *request) completeObject(objType *schema.Type, nodes []*language.Field, value any, path Path, within *slot) (any, bool) {
	var sel language.SelectionSet
	for _, n := range nodes {
		sel = append(sel, n.SelectionSet...)
	}
	out := map[string]any{}
	if !r.executeFields(objType, sel, value, path, within, out) {
		return nil, false
	}
	return out, true
}

// completeList completes every item of value. Item results are written into
// the returned slice by index so that deferred items land in place.
func (r *request) completeList(itemType *schema.TypeRef, nodes []*language.Field, value any, path Path, within *slot) (any, bool) {
	items, ok := value.([]any)
	if !ok {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			r.fieldError(nodes, path, fmt.Errorf("Expected list value, got %T", value))
			return nil, false
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	out := make([]any, len(items))
	for i, item := range items {
		if !r.place(itemType, nodes, item, appendPath(path, i), within, func(v any) { out[i] = v }) {
			return nil, false
		}
	}
	return out, true
}

func (r *request) fieldError(nodes []*language.Field, path Path, err error) {
	r.errors = append(r.errors, FieldError{Err: err, Path: path, Query: r.query, Fields: nodes})
}

func (r *request) addError(err ExecutionError) {
	r.errors = append(r.errors, err)
}

func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
