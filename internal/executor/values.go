package executor

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	language "github.com/hanpama/gqlcore/internal/language"
	schema "github.com/hanpama/gqlcore/internal/schema"
)

// InputError describes an input value that failed coercion. Path is set for
// field arguments and left empty for variables.
type InputError struct {
	Message   string
	Path      Path
	Locations []language.Location
}

func (e *InputError) Error() string { return e.Message }

// ErrorRecord renders the error as a response error record.
func (e *InputError) ErrorRecord() GraphQLError {
	rec := GraphQLError{Message: e.Message, Path: copyPath(e.Path)}
	if len(e.Locations) > 0 {
		rec.Locations = append([]language.Location(nil), e.Locations...)
	}
	return rec
}

// newInputError locates pos in query when it can. Input errors carry
// locations as a courtesy, so a position that cannot be located is left out.
func newInputError(message string, path Path, query string, pos *language.Position) *InputError {
	e := &InputError{Message: message, Path: copyPath(path)}
	if pos == nil || query == "" {
		return e
	}
	if loc, err := locateNode(language.NewLocator(query), query, pos); err == nil {
		e.Locations = []language.Location{loc}
	}
	return e
}

// coerceVariableValues coerces variable values according to their types
func coerceVariableValues(
	s *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
	query string,
) (map[string]any, ExecutionError) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if v2, ok2 := variableValues[strings.TrimPrefix(name, "$")]; ok2 {
				val = v2
				ok = true
			}
		}
		if !ok {
			if varDef.DefaultValue != nil {
				val = language.ValueToGo(varDef.DefaultValue)
			} else if t.NonNull {
				return nil, RequiredVariableMissingValue{Name: name}
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			msg := fmt.Sprintf("variable $%s of type %s cannot be null", name, t.String())
			return nil, CoercionError{Err: newInputError(msg, nil, query, varDef.Position)}
		}
		cv, err := coerceValue(s, val, typeRefFromAST(t))
		if err != nil {
			msg := fmt.Sprintf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
			return nil, CoercionError{Err: newInputError(msg, nil, query, varDef.Position)}
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces argument values for a field. It reports false
// after recording a CoercionError, in which case the field is not resolved.
func coerceArgumentValues(
	fieldDef *schema.Field,
	field *language.Field,
	r *request,
	path Path,
) (map[string]any, bool) {
	coerced := make(map[string]any)
	failed := make(map[string]bool)
	for _, arg := range field.Arguments {
		argDef := fieldDef.Argument(arg.Name)
		if argDef == nil {
			continue
		}
		val, present := valueFromASTWithVars(arg.Value, r.vars)
		if !present {
			continue
		}
		cv, err := coerceValue(r.schema, val, argDef.Type)
		if err != nil {
			msg := fmt.Sprintf("argument '%s' cannot be coerced: %v", arg.Name, err)
			r.addError(CoercionError{Err: newInputError(msg, path, r.query, arg.Position)})
			failed[arg.Name] = true
			continue
		}
		coerced[arg.Name] = cv
	}
	for _, argDef := range fieldDef.Arguments {
		name := argDef.Name
		if _, done := coerced[name]; done || failed[name] {
			continue
		}
		if argDef.DefaultValue != nil {
			coerced[name] = argDef.DefaultValue
		} else if schema.IsNonNull(argDef.Type) {
			msg := fmt.Sprintf("argument '%s' of required type %s was not provided", name, argDef.Type)
			r.addError(CoercionError{Err: newInputError(msg, path, r.query, field.Position)})
			failed[name] = true
		}
	}
	return coerced, len(failed) == 0
}

// valueFromASTWithVars converts an AST value to a runtime value with variable
// substitution. It reports false for a variable that has no value, so the
// caller can fall back to a default.
func valueFromASTWithVars(value *language.Value, variableValues map[string]any) (any, bool) {
	if value == nil {
		return nil, true
	}
	switch value.Kind {
	case language.Variable:
		name := value.Raw
		if v, ok := variableValues[name]; ok {
			return v, true
		}
		if v, ok := variableValues[strings.TrimPrefix(name, "$")]; ok {
			return v, true
		}
		return nil, false
	case language.ListValue:
		out := make([]any, 0, len(value.Children))
		for _, c := range value.Children {
			v, _ := valueFromASTWithVars(c.Value, variableValues)
			out = append(out, v)
		}
		return out, true
	case language.ObjectValue:
		out := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			if v, ok := valueFromASTWithVars(c.Value, variableValues); ok {
				out[c.Name] = v
			}
		}
		return out, true
	default:
		return language.ValueToGo(value), true
	}
}

// coerceValue coerces a value to the specified GraphQL type
func coerceValue(s *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", targetType)
		}
		return coerceValue(s, value, schema.Unwrap(targetType))
	}

	if value == nil {
		return nil, nil
	}

	if schema.IsList(targetType) {
		return coerceListValue(s, value, targetType)
	}

	namedType := schema.GetNamedType(targetType)
	switch namedType {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}

	t := s.Type(namedType)
	if t == nil {
		return value, nil
	}
	switch t.Kind {
	case schema.TypeKindEnum:
		return coerceToEnum(t, value)
	case schema.TypeKindInputObject:
		return coerceInputObject(s, t, value)
	case schema.TypeKindScalar:
		return value, nil
	default:
		return nil, fmt.Errorf("type %s is not an input type", namedType)
	}
}

// coerceListValue coerces a value to a list
func coerceListValue(s *schema.Schema, value any, listType *schema.TypeRef) (any, error) {
	innerType := schema.Unwrap(listType)
	if slice, ok := value.([]any); ok {
		coercedSlice := make([]any, len(slice))
		for i, item := range slice {
			coercedItem, err := coerceValue(s, item, innerType)
			if err != nil {
				return nil, fmt.Errorf("at index %d: %w", i, err)
			}
			coercedSlice[i] = coercedItem
		}
		return coercedSlice, nil
	}

	// Single value becomes a list of one
	coercedItem, err := coerceValue(s, value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{coercedItem}, nil
}

func coerceToEnum(t *schema.Type, value any) (any, error) {
	name, ok := value.(string)
	if !ok || t.EnumValue(name) == nil {
		return nil, fmt.Errorf("value %v is not a member of enum %s", value, t.Name)
	}
	return name, nil
}

func coerceInputObject(s *schema.Schema, t *schema.Type, value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to input object %s", value, value, t.Name)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if t.InputField(name) == nil {
			return nil, fmt.Errorf("unknown field '%s' on input type %s", name, t.Name)
		}
	}

	out := make(map[string]any, len(t.InputFields))
	for _, f := range t.InputFields {
		v, present := fields[f.Name]
		if !present {
			if f.DefaultValue != nil {
				out[f.Name] = f.DefaultValue
			} else if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("missing required field '%s' of input type %s", f.Name, t.Name)
			}
			continue
		}
		cv, err := coerceValue(s, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s' of input type %s: %w", f.Name, t.Name, err)
		}
		out[f.Name] = cv
	}

	if t.OneOf {
		set := 0
		for _, name := range names {
			if fields[name] != nil {
				set++
			}
		}
		if set != 1 || len(fields) != 1 {
			return nil, fmt.Errorf("input type %s requires exactly one non-null field", t.Name)
		}
	}
	return out, nil
}

func coerceToInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("cannot coerce %v to Int: outside 32-bit range", value)
		}
		n = int64(v)
	case float32:
		return coerceToInt(float64(v))
	case *big.Int:
		return nil, fmt.Errorf("cannot coerce %s to Int: outside 32-bit range", v)
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("cannot coerce %v to Int: outside 32-bit range", value)
	}
	return int(n), nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case *big.Int:
		return v.String(), nil
	case float64:
		// JSON numbers beyond 2^53 no longer name a single integer
		if v == math.Trunc(v) && math.Abs(v) <= 1<<53 {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
