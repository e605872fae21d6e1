package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
)

// GraphQLRequest is one request as sent over HTTP.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

var errBodyTooLarge = errors.New("body too large")

// readRequests decodes the requests carried by r. batch reports whether the
// body was a JSON array, in which case the response is an array too.
func readRequests(r *http.Request, maxBody int64) (reqs []GraphQLRequest, batch bool, err error) {
	if r.Method == http.MethodGet {
		req, err := queryRequest(r)
		if err != nil {
			return nil, false, err
		}
		return []GraphQLRequest{req}, false, nil
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return nil, false, errors.New("unsupported Content-Type")
		}
	}
	body, err := readBody(r, maxBody)
	if err != nil {
		return nil, false, err
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(body, &reqs); err != nil {
			return nil, false, errors.New("invalid JSON")
		}
		if len(reqs) == 0 {
			return nil, false, errors.New("empty batch")
		}
		return reqs, true, nil
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, errors.New("invalid JSON")
	}
	if req.Query == "" {
		return nil, false, errors.New("missing 'query'")
	}
	return []GraphQLRequest{req}, false, nil
}

func queryRequest(r *http.Request) (GraphQLRequest, error) {
	params := r.URL.Query()
	req := GraphQLRequest{Query: params.Get("query"), OperationName: params.Get("operationName")}
	if req.Query == "" {
		return req, errors.New("missing 'query'")
	}
	if v := params.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			return req, errors.New("invalid 'variables' JSON")
		}
	}
	return req, nil
}

func readBody(r *http.Request, maxBody int64) ([]byte, error) {
	defer r.Body.Close()
	src := io.Reader(r.Body)
	if maxBody > 0 {
		src = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.New("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return nil, errBodyTooLarge
	}
	return body, nil
}
