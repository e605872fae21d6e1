package executor

import language "github.com/hanpama/gqlcore/internal/language"

// GraphQLError is a response error record.
type GraphQLError struct {
	Message    string              `json:"message"`
	Locations  []language.Location `json:"locations,omitempty"`
	Path       Path                `json:"path,omitempty"`
	Extensions map[string]any      `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult is the response of one request. Data is nil when execution
// never started or a non-null violation reached the root.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}
