// Package executor runs GraphQL operations against a Runtime, batching async
// fields by depth.
//
// # Execution
//
// ExecuteRequest selects the operation, coerces variables and then walks the
// root selection set. Sync fields (schema.Field.Async false) are resolved
// with Runtime.ResolveSync and completed on the spot, so any amount of sync
// nesting stays within the current depth. Async fields leave a null
// placeholder and are queued. When the walk is done, the whole queue goes to
// Runtime.BatchResolveAsync in one call; completing those results queues the
// async fields of the next depth. A query whose deepest chain holds d async
// fields therefore makes d batch calls.
//
// # Completion and nulls
//
// Lists, leaves, objects and abstract types complete as usual: leaves go
// through Runtime.SerializeLeafValue and interface or union values through
// Runtime.ResolveType, which must name one of the possible types.
//
// Every nullable response position is tracked while its subtree may still
// change. When a non-null field or list item ends up null, the nearest
// enclosing nullable position becomes null, and async fields queued beneath
// it are never sent to the runtime. If no nullable position encloses the
// failure, data itself is null.
//
// # Errors
//
// Failures accumulate as ExecutionError values. Errors that stop execution
// before it starts (operation selection, variables, a missing root type)
// produce a result with no data. Field failures become FieldError with the
// response path and the field nodes of the collected group; argument
// failures become CoercionError and the field is not resolved. All errors
// are rendered with RenderAll before ExecuteRequest returns.
package executor
