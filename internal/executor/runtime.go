package executor

import "context"

// Runtime supplies field values, concrete types of abstract values, and leaf
// serialization to the Executor.
//
// Fields marked Async in the schema never reach ResolveSync. They are queued
// and handed to BatchResolveAsync once per async depth; the executor waits
// for each batch before starting the next. Fields below a position that was
// already nulled by a non-null violation are dropped before the batch is
// built.
//
// An error returned for a field becomes a FieldError at that field, with
// Error() as the message. Implementations must be safe for concurrent use by
// separate requests and must not modify source or args.
type Runtime interface {
	// ResolveSync returns the raw value of a sync field. Returning (nil, nil)
	// yields null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one depth of async fields. results[i] must
	// belong to tasks[i]; a missing result is reported as an error on its
	// field. A failed element does not affect the others.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType names the object type of a value of an interface or union.
	// The name must be one of abstractType's possible types.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue turns a scalar or enum value into a JSON-encodable
	// Go value. Enums serialize to their name.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// AsyncResolveTask is one queued async field. Source is nil for root fields;
// Args are already coerced.
type AsyncResolveTask struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

// AsyncResolveResult is the outcome of one AsyncResolveTask.
type AsyncResolveResult struct {
	Value any
	Error error
}
