// Package events defines the payloads published on the event bus while a
// request is served. Subscribers receive the request context, which carries
// the request id.
package events

import (
	"net/http"
	"time"

	executor "github.com/hanpama/gqlcore/internal/executor"
)

// HTTPStart is emitted when an HTTP request is received.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler has written its response.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation. Errors holds
// the rendered response error records, in response order.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []executor.GraphQLError
	Duration      time.Duration
}
