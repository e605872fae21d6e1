package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	language "github.com/hanpama/gqlcore/internal/language"
	schema "github.com/hanpama/gqlcore/internal/schema"
)

// Path is a response path. Elements are field response names (string) and
// list indices (int), outermost first.
type Path []PathElement

type PathElement any

// String renders the path the way it appears in messages, e.g. "search.items[2]".
func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		}
	}
	return b.String()
}

func appendPath(path Path, elem PathElement) Path {
	out := make(Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// ExecuteQuery parses query and executes it. A syntax error is reported as a
// ParseError and nothing is executed.
func (e *Executor) ExecuteQuery(
	ctx context.Context,
	query string,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	document, err := language.ParseQuery(query)
	if err != nil {
		return failed(ParseError{Err: err})
	}
	return e.ExecuteRequest(ctx, document, operationName, variableValues, initialValue)
}

// ExecuteRequest executes one operation of a parsed document. Every error
// raised along the way is rendered before it returns, while the document is
// still in scope.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation, opErr := getOperation(document, operationName)
	if opErr != nil {
		return failed(opErr)
	}

	query := language.SourceText(document)
	vars, varErr := coerceVariableValues(e.schema, operation, variableValues, query)
	if varErr != nil {
		return failed(varErr)
	}

	rootType, err := e.rootType(operation.Operation)
	if err != nil {
		return failed(err)
	}

	r := &request{
		ctx:     ctx,
		runtime: e.runtime,
		schema:  e.schema,
		doc:     document,
		query:   query,
		vars:    vars,
	}
	data := r.execute(rootType, operation.SelectionSet, initialValue)
	return &ExecutionResult{Data: data, Errors: RenderAll(r.errors)}
}

func (e *Executor) rootType(op language.Operation) (*schema.Type, ExecutionError) {
	var t *schema.Type
	switch op {
	case language.Query:
		t = e.schema.GetQueryType()
	case language.Mutation:
		t = e.schema.GetMutationType()
	case language.Subscription:
		t = e.schema.GetSubscriptionType()
	default:
		return nil, ApplicationError{Message: fmt.Sprintf("unsupported operation type: %s", op)}
	}
	if t == nil {
		return nil, ApplicationError{Message: fmt.Sprintf("root type not found for %s operation", op)}
	}
	return t, nil
}

// failed is the result of a request that stopped before execution began.
func failed(err ExecutionError) *ExecutionResult {
	return &ExecutionResult{Errors: RenderAll([]ExecutionError{err})}
}

// getOperation selects the operation to run. Without a name the document
// must hold exactly one operation.
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, ExecutionError) {
	if operationName == "" {
		if len(document.Operations) != 1 {
			return nil, CannotUseAnonymousOperation{}
		}
		return document.Operations[0], nil
	}
	if op := document.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	return nil, NoOperationWithName{Name: operationName}
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = schema.NonNullType(ref)
	}
	return ref
}
