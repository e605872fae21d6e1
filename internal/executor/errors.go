package executor

import (
	"errors"
	"fmt"

	language "github.com/hanpama/gqlcore/internal/language"
)

// ExecutionError is one failure detected while selecting an operation, binding
// variables, coercing input or executing fields. The set of implementations is
// closed; Render turns any of them into a response error record.
type ExecutionError interface {
	error
	executionError()
}

// NoOperationWithName reports an operation name absent from the document.
type NoOperationWithName struct {
	Name string
}

// CannotUseAnonymousOperation reports a missing operation name for a document
// that does not hold exactly one operation.
type CannotUseAnonymousOperation struct{}

// RequiredVariableMissingValue reports a non-null variable without a value or default.
type RequiredVariableMissingValue struct {
	Name string
}

// ApplicationError reports an internal failure of the engine itself.
type ApplicationError struct {
	Message string
}

// CoercionError wraps a failure to coerce an argument, variable or input object value.
type CoercionError struct {
	Err *InputError
}

// ParseError wraps a failure to parse the query text.
type ParseError struct {
	Err error
}

// FieldError is a failure while resolving or completing a field. Query and
// Fields are borrowed from the request and must outlive rendering.
type FieldError struct {
	Err    error
	Path   Path
	Query  string
	Fields []*language.Field
}

func (NoOperationWithName) executionError()          {}
func (CannotUseAnonymousOperation) executionError()  {}
func (RequiredVariableMissingValue) executionError() {}
func (ApplicationError) executionError()             {}
func (CoercionError) executionError()                {}
func (ParseError) executionError()                   {}
func (FieldError) executionError()                   {}

func (e NoOperationWithName) Error() string {
	return fmt.Sprintf("No operation definition named `%s`", e.Name)
}

func (CannotUseAnonymousOperation) Error() string {
	return "Operation name is required when document does not contain exactly 1 operation definition"
}

func (e RequiredVariableMissingValue) Error() string {
	return fmt.Sprintf("No value was provided for required variable `$%s`", e.Name)
}

func (e ApplicationError) Error() string {
	return "Internal error: " + e.Message
}

func (e CoercionError) Error() string {
	if e.Err == nil {
		return "invalid input value"
	}
	return e.Err.Error()
}

func (e CoercionError) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

func (e ParseError) Error() string {
	var gqlErr *language.Error
	if errors.As(e.Err, &gqlErr) {
		return gqlErr.Message
	}
	if e.Err == nil {
		return "syntax error"
	}
	return e.Err.Error()
}

func (e ParseError) Unwrap() error { return e.Err }

func (e FieldError) Error() string {
	if e.Err == nil {
		return "field error"
	}
	return e.Err.Error()
}

func (e FieldError) Unwrap() error { return e.Err }

// Render converts an execution error into a response error record. Only a
// FieldError can fail, when one of its field nodes has no span inside Query;
// the returned error then wraps language.ErrInvalidSpan.
func Render(e ExecutionError) (GraphQLError, error) {
	switch e := e.(type) {
	case NoOperationWithName, CannotUseAnonymousOperation, RequiredVariableMissingValue, ApplicationError, ParseError:
		return GraphQLError{Message: e.Error()}, nil
	case CoercionError:
		if e.Err == nil {
			return GraphQLError{Message: e.Error()}, nil
		}
		return e.Err.ErrorRecord(), nil
	case FieldError:
		rec := GraphQLError{Message: e.Error(), Path: copyPath(e.Path)}
		if len(e.Fields) == 0 {
			return rec, nil
		}
		locator := language.NewLocator(e.Query)
		rec.Locations = make([]language.Location, 0, len(e.Fields))
		for _, f := range e.Fields {
			loc, err := locateNode(locator, e.Query, f.Position)
			if err != nil {
				return GraphQLError{}, fmt.Errorf("render error at %s: field %s: %w", e.Path, f.Name, err)
			}
			rec.Locations = append(rec.Locations, loc)
		}
		return rec, nil
	case nil:
		return GraphQLError{}, errors.New("render: nil execution error")
	default:
		return GraphQLError{Message: e.Error()}, nil
	}
}

// RenderAll renders errs in order. An error that cannot be rendered becomes an
// ApplicationError record at the same path, so the failure stays visible.
func RenderAll(errs []ExecutionError) []GraphQLError {
	out := make([]GraphQLError, 0, len(errs))
	for _, e := range errs {
		rec, err := Render(e)
		if err != nil {
			rec = GraphQLError{Message: ApplicationError{Message: err.Error()}.Error()}
			if fe, ok := e.(FieldError); ok {
				rec.Path = copyPath(fe.Path)
			}
		}
		out = append(out, rec)
	}
	return out
}

func locateNode(locator *language.Locator, text string, pos *language.Position) (language.Location, error) {
	span, err := language.SpanOf(pos, text)
	if err != nil {
		return language.Location{}, err
	}
	return locator.Locate(span)
}

func copyPath(p Path) Path {
	if len(p) == 0 {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}
