// Package jsonrt implements executor.Runtime over a raw JSON document.
//
// Object values are gjson results. A field resolves to the member of the same
// name in its parent object; missing members and JSON null complete as null,
// arrays complete as lists. Values of interface and union types name their
// concrete type in a "__typename" member. Field arguments are accepted and
// ignored.
package jsonrt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hanpama/gqlcore/internal/executor"
	"github.com/hanpama/gqlcore/internal/schema"
)

// Runtime resolves fields against one JSON document. It is read-only and safe
// for concurrent use.
type Runtime struct {
	schema *schema.Schema
	root   gjson.Result
}

var _ executor.Runtime = (*Runtime)(nil)

// New parses data, which must hold a JSON object.
func New(s *schema.Schema, data []byte) (*Runtime, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("jsonrt: invalid JSON document")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("jsonrt: root value must be an object, got %s", root.Type)
	}
	return &Runtime{schema: s, root: root}, nil
}

// Root returns the initial value for operation root fields.
func (r *Runtime) Root() any { return r.root }

func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	return r.resolve(objectType, field, source)
}

func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			results[i].Error = err
			continue
		}
		results[i].Value, results[i].Error = r.resolve(t.ObjectType, t.Field, t.Source)
	}
	return results
}

func (r *Runtime) resolve(objectType, field string, source any) (any, error) {
	src, ok := source.(gjson.Result)
	if !ok {
		if source != nil {
			return nil, fmt.Errorf("%s.%s: unexpected source %T", objectType, field, source)
		}
		src = r.root
	}
	if !src.IsObject() {
		return nil, fmt.Errorf("%s.%s: source is not an object", objectType, field)
	}
	return fromJSON(src.Get(gjson.Escape(field))), nil
}

func fromJSON(v gjson.Result) any {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if v.IsArray() {
		elems := v.Array()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = fromJSON(e)
		}
		return out
	}
	return v
}

func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	v, ok := value.(gjson.Result)
	if !ok || !v.IsObject() {
		return "", fmt.Errorf("cannot resolve concrete type of %s from a non-object value", abstractType)
	}
	name := v.Get("__typename")
	if name.Type != gjson.String || name.Str == "" {
		return "", fmt.Errorf("cannot resolve concrete type of %s: missing __typename", abstractType)
	}
	return name.Str, nil
}

func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	v, ok := value.(gjson.Result)
	if !ok {
		// a list completing as a custom scalar was split by fromJSON
		if list, isList := value.([]any); isList && r.isCustomScalar(typeName) {
			return toGo(list), nil
		}
		return nil, fmt.Errorf("cannot serialize %T as %s", value, typeName)
	}
	switch typeName {
	case "Int":
		if v.Type == gjson.Number && v.Num == math.Trunc(v.Num) && v.Num >= math.MinInt32 && v.Num <= math.MaxInt32 {
			return int(v.Num), nil
		}
	case "Float":
		if v.Type == gjson.Number {
			return v.Num, nil
		}
	case "String":
		if v.Type == gjson.String {
			return v.Str, nil
		}
	case "Boolean":
		if v.Type == gjson.True || v.Type == gjson.False {
			return v.Bool(), nil
		}
	case "ID":
		switch {
		case v.Type == gjson.String:
			return v.Str, nil
		case v.Type == gjson.Number && integerLiteral(v.Raw):
			return v.Raw, nil
		case v.Type == gjson.Number && v.Num == math.Trunc(v.Num) && math.Abs(v.Num) <= 1<<53:
			return strconv.FormatInt(int64(v.Num), 10), nil
		}
	default:
		t := r.schema.Type(typeName)
		if t == nil {
			return nil, fmt.Errorf("unknown leaf type %s", typeName)
		}
		if t.Kind == schema.TypeKindEnum {
			if v.Type == gjson.String && t.EnumValue(v.Str) != nil {
				return v.Str, nil
			}
			return nil, fmt.Errorf("%s is not a member of enum %s", v.Raw, typeName)
		}
		return v.Value(), nil
	}
	return nil, fmt.Errorf("cannot serialize %s as %s", v.Raw, typeName)
}

// integerLiteral reports whether a JSON number is written as a plain integer,
// which keeps its exact digits regardless of size.
func integerLiteral(raw string) bool {
	digits := strings.TrimPrefix(raw, "-")
	if digits == "" {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (r *Runtime) isCustomScalar(name string) bool {
	t := r.schema.Type(name)
	return t != nil && t.Kind == schema.TypeKindScalar && !schema.IsBuiltin(t)
}

func toGo(list []any) []any {
	out := make([]any, len(list))
	for i, e := range list {
		switch e := e.(type) {
		case gjson.Result:
			out[i] = e.Value()
		case []any:
			out[i] = toGo(e)
		}
	}
	return out
}
