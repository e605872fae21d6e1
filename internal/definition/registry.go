package definition

import (
	"reflect"
	"sync"
)

// Registry hands out one Resolver per handle. All referrers that obtain a
// resolver for the same handle share a single cache cell, so the definition is
// built once no matter how many places in a schema mention it.
//
// The zero value is ready to use.
type Registry[T any] struct {
	mu       sync.Mutex
	byHandle map[any]Resolver[T]
}

// Resolver returns the shared resolver for handle, creating it on first use.
// Handles whose dynamic value cannot key a map, such as a struct holding a
// slice in an interface field, are rejected.
func (r *Registry[T]) Resolver(handle any) (Resolver[T], error) {
	if handle != nil && !reflect.ValueOf(handle).Comparable() {
		return Resolver[T]{}, &TypeMismatchError{Handle: QualifiedName(handle), Want: providerName[T](), Err: ErrHandleNotComparable}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.byHandle[handle]; ok {
		return res, nil
	}
	res, err := New[T](handle)
	if err != nil {
		return Resolver[T]{}, err
	}
	if r.byHandle == nil {
		r.byHandle = make(map[any]Resolver[T])
	}
	r.byHandle[handle] = res
	return res, nil
}

// Len reports how many handles the registry has seen.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byHandle)
}
