package definition

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrHandleNotComparable is wrapped by the TypeMismatchError a Registry
// returns for handles that cannot key a map.
var ErrHandleNotComparable = errors.New("handle is not comparable")

// TypeMismatchError reports a handle that cannot provide the requested kind of definition.
type TypeMismatchError struct {
	Handle string
	Want   string
	Err    error
}

func (e *TypeMismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no implicit conversion of %s into %s: %v", e.Handle, e.Want, e.Err)
	}
	return fmt.Sprintf("no implicit conversion of %s into %s", e.Handle, e.Want)
}

func (e *TypeMismatchError) Unwrap() error { return e.Err }

// CycleError is returned when a definition's provider needs that same
// definition before it has finished building it.
type CycleError struct {
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("definition %s is required while it is being built", e.Name)
}

// Namer lets a handle choose its own diagnostic name.
type Namer interface {
	QualifiedName() string
}

// QualifiedName returns a stable, human-readable name for handle: its
// QualifiedName method when present, otherwise the import path qualified name
// of its (dereferenced) Go type.
func QualifiedName(handle any) string {
	if handle == nil {
		return "<nil>"
	}
	if n, ok := handle.(Namer); ok {
		return n.QualifiedName()
	}
	return typeName(reflect.TypeOf(handle))
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

func providerName[T any]() string {
	return "definition.Provider[" + typeName(reflect.TypeOf((*T)(nil)).Elem()) + "]"
}
