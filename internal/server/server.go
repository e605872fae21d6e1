// Package server exposes an Executor over HTTP. A request body may hold one
// GraphQL request or a JSON array of them; GET requests carry a single one in
// the query string.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	eventbus "github.com/hanpama/gqlcore/internal/eventbus"
	events "github.com/hanpama/gqlcore/internal/events"
	executor "github.com/hanpama/gqlcore/internal/executor"
	language "github.com/hanpama/gqlcore/internal/language"
	reqid "github.com/hanpama/gqlcore/internal/reqid"
	schema "github.com/hanpama/gqlcore/internal/schema"
)

type Handler struct {
	exec *executor.Executor
	opt  Options
	docs *lru.Cache // query text -> *language.QueryDocument; nil when disabled
	log  *zap.Logger
}

type Options struct {
	// Timeout bounds requests whose context has no deadline. 0 disables it.
	Timeout time.Duration
	Pretty  bool
	// MaxBodyBytes limits POST bodies. 0 means unlimited.
	MaxBodyBytes int64
	// AllowedOrigins enables CORS when non-empty. "*" allows any origin.
	AllowedOrigins []string
	// DocumentCacheSize is the number of parsed documents kept. 0 disables
	// the cache.
	DocumentCacheSize int
	// RootValue is the source of root fields.
	RootValue any
	Logger    *zap.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option  { return func(o *Options) { o.AllowedOrigins = origins } }
func WithDocumentCache(size int) Option  { return func(o *Options) { o.DocumentCacheSize = size } }
func WithRootValue(v any) Option         { return func(o *Options) { o.RootValue = v } }
func WithLogger(l *zap.Logger) Option    { return func(o *Options) { o.Logger = l } }

func New(runtime executor.Runtime, schema *schema.Schema, opts ...Option) (*Handler, error) {
	h := &Handler{
		exec: executor.NewExecutor(runtime, schema),
		opt:  Options{Timeout: 10 * time.Second},
	}
	for _, apply := range opts {
		apply(&h.opt)
	}
	h.log = h.opt.Logger
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if n := h.opt.DocumentCacheSize; n > 0 {
		docs, err := lru.New(n)
		if err != nil {
			return nil, err
		}
		h.docs = docs
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	ctx, rid := reqid.NewContext(ctx)
	log := h.log.With(zap.Int64("request_id", rid))

	start := time.Now()
	status := http.StatusOK
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	h.cors(w, r)
	switch r.Method {
	case http.MethodOptions:
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	case http.MethodGet, http.MethodPost:
	default:
		status = http.StatusMethodNotAllowed
		h.write(w, status, requestError("method not allowed"))
		return
	}

	reqs, batch, err := readRequests(r, h.opt.MaxBodyBytes)
	if err != nil {
		status = http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		log.Debug("rejected request", zap.Error(err), zap.Int("status", status))
		h.write(w, status, requestError(err.Error()))
		return
	}

	results := make([]*executor.ExecutionResult, len(reqs))
	for i, req := range reqs {
		results[i] = h.run(ctx, log, req)
	}
	if batch {
		h.write(w, status, results)
		return
	}
	h.write(w, status, results[0])
}

func (h *Handler) run(ctx context.Context, log *zap.Logger, req GraphQLRequest) *executor.ExecutionResult {
	doc, err := h.document(req.Query)
	if err != nil {
		log.Debug("query parse failed", zap.Error(err))
		return &executor.ExecutionResult{
			Errors: executor.RenderAll([]executor.ExecutionError{executor.ParseError{Err: err}}),
		}
	}

	opType := operationType(doc, req.OperationName)
	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, h.opt.RootValue)
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        result.Errors,
		Duration:      time.Since(start),
	})

	if n := len(result.Errors); n > 0 {
		log.Debug("operation finished with errors",
			zap.String("operation", req.OperationName),
			zap.Int("errors", n),
			zap.String("first_error", result.Errors[0].Message))
	}
	return result
}

// operationType reports the type of the operation a request selects, or ""
// when the selection is invalid.
func operationType(doc *language.QueryDocument, name string) string {
	if op := doc.Operations.ForName(name); op != nil {
		return string(op.Operation)
	}
	if name == "" && len(doc.Operations) == 1 {
		return string(doc.Operations[0].Operation)
	}
	return ""
}

// document parses query or returns the cached document for the same text.
// Documents are read-only during execution and may be shared.
func (h *Handler) document(query string) (*language.QueryDocument, error) {
	if h.docs != nil {
		if v, ok := h.docs.Get(query); ok {
			return v.(*language.QueryDocument), nil
		}
	}
	doc, err := language.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	if h.docs != nil && h.docs.Add(query, doc) {
		h.log.Debug("document cache eviction", zap.Int("size", h.docs.Len()))
	}
	return doc, nil
}

func requestError(message string) *executor.ExecutionResult {
	return &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: message}}}
}

func (h *Handler) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		h.log.Warn("failed to write response", zap.Error(err))
	}
}
