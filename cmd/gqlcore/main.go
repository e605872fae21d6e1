package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanpama/gqlcore/internal/eventbus"
	"github.com/hanpama/gqlcore/internal/executor"
	"github.com/hanpama/gqlcore/internal/introspection"
	"github.com/hanpama/gqlcore/internal/jsonrt"
	"github.com/hanpama/gqlcore/internal/language"
	"github.com/hanpama/gqlcore/internal/otel"
	"github.com/hanpama/gqlcore/internal/sample"
	"github.com/hanpama/gqlcore/internal/schema"
	"github.com/hanpama/gqlcore/internal/server"
)

const rootUsage = `gqlcore: GraphQL execution over JSON documents

USAGE:
  gqlcore <command> [flags]

COMMANDS:
  exec             Execute one GraphQL request and print the response
  serve            Run the HTTP GraphQL endpoint
  compile-sdl      Merge & validate GraphQL SDL into a single schema
  help             Show help for any command
`

const execUsage = `exec FLAGS:
  -schema <file>         GraphQL SDL file. Repeatable; required unless -sample
  -data <file>           JSON document serving as the root value (default: empty object)
  -sample                Use the built-in bookshop schema and data
  -query <text>          Query text (or -query.file)
  -query.file <file>     Read the query from a file
  -operation <name>      Operation to execute
  -variables <json>      Variable values as a JSON object
  -pretty                Pretty-print the response
  -graphql.introspection Serve __schema and __type (default: true)
`

const serveUsage = `serve FLAGS:
  -schema <file>                 GraphQL SDL file. Repeatable; required unless -sample
  -data <file>                   JSON document serving as the root value (default: empty object)
  -sample                        Use the built-in bookshop schema and data
  -server.addr <addr>            HTTP listen address (default: :8080)
  -server.pretty                 Pretty-print JSON responses
  -server.timeout <duration>     Per-request timeout, e.g. 10s (default: 10s)
  -server.max-body <bytes>       Maximum request body size, 0 for unlimited (default: 1048576)
  -server.cors-origin <origin>   Allowed CORS origin. Repeatable
  -server.document-cache <n>     Parsed documents to cache, 0 disables (default: 1000)
  -graphql.introspection         Serve __schema and __type (default: true)
  -otel.endpoint <addr>          OTLP collector endpoint
  -otel.service <name>           OpenTelemetry service name (default: gqlcore)
  -log.level <level>             debug, info, warn or error (default: info)
  -log.dev                       Human-friendly development logging
`

const compileSDLUsage = `compile-sdl FLAGS:
  -schema <file>   GraphQL SDL file. Repeatable; required unless -sample
  -sample          Compile the built-in bookshop schema
  -out  <file>     Write compiled SDL to file (default: stdout)
  (Validation always runs; exits non-zero on errors)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("gqlcore", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "exec":
		return cmdExec(cmdArgs, stdout, stderr)
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "compile-sdl":
		return cmdCompileSDL(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "exec":
		fmt.Fprint(stdout, execUsage)
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "compile-sdl":
		fmt.Fprint(stdout, compileSDLUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// loadSchema builds the schema from SDL files, or from the code-first sample
// declarations when useSample is set.
func loadSchema(files []string, useSample bool) (*schema.Schema, error) {
	if useSample {
		if len(files) > 0 {
			return nil, fmt.Errorf("-sample cannot be combined with -schema")
		}
		sch, err := sample.Schema(context.Background())
		if err != nil {
			return nil, fmt.Errorf("build sample schema: %w", err)
		}
		return sch, nil
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("-schema is required")
	}
	sources := make([]*language.Source, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		sources = append(sources, &language.Source{Name: f, Input: string(b)})
	}
	sch, err := schema.BuildFromSources(sources...)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}

func loadRuntime(sch *schema.Schema, dataFile string, useSample bool) (*jsonrt.Runtime, error) {
	data := []byte("{}")
	if useSample && dataFile == "" {
		data = sample.Data
	}
	if dataFile != "" {
		b, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, err
		}
		data = b
	}
	rt, err := jsonrt.New(sch, data)
	if err != nil {
		return nil, fmt.Errorf("load data: %w", err)
	}
	return rt, nil
}

// introspect wraps rt with the introspection runtime when enabled. The
// returned schema is the one to execute against.
func introspect(rt executor.Runtime, sch *schema.Schema, enabled bool) (executor.Runtime, *schema.Schema, error) {
	if !enabled {
		return rt, sch, nil
	}
	wrapped, err := introspection.Wrap(rt, sch)
	if err != nil {
		return nil, nil, err
	}
	return wrapped, wrapped.Schema(), nil
}

func cmdExec(args []string, stdout, stderr io.Writer) error {
	var schemaFiles stringListFlag
	dataFile := ""
	query := ""
	queryFile := ""
	operation := ""
	variables := ""
	pretty := false
	introspectionOn := true
	useSample := false

	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&schemaFiles, "schema", "GraphQL SDL file")
	fs.StringVar(&dataFile, "data", dataFile, "JSON root value")
	fs.BoolVar(&useSample, "sample", useSample, "Use the built-in sample schema")
	fs.StringVar(&query, "query", query, "Query text")
	fs.StringVar(&queryFile, "query.file", queryFile, "Query file")
	fs.StringVar(&operation, "operation", operation, "Operation name")
	fs.StringVar(&variables, "variables", variables, "Variables JSON")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print the response")
	fs.BoolVar(&introspectionOn, "graphql.introspection", introspectionOn, "Serve introspection fields")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, execUsage)
		return err
	}
	if queryFile != "" {
		b, err := os.ReadFile(queryFile)
		if err != nil {
			return err
		}
		query = string(b)
	}
	if query == "" {
		fmt.Fprint(stderr, execUsage)
		return fmt.Errorf("-query or -query.file is required")
	}
	var vars map[string]any
	if variables != "" {
		if err := json.Unmarshal([]byte(variables), &vars); err != nil {
			return fmt.Errorf("invalid -variables: %w", err)
		}
	}

	sch, err := loadSchema(schemaFiles, useSample)
	if err != nil {
		return err
	}
	rt, err := loadRuntime(sch, dataFile, useSample)
	if err != nil {
		return err
	}

	execRT, execSchema, err := introspect(rt, sch, introspectionOn)
	if err != nil {
		return err
	}
	result := executor.NewExecutor(execRT, execSchema).ExecuteQuery(context.Background(), query, operation, vars, rt.Root())
	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

// newLogger writes JSON logs to w, or console logs in development mode.
func newLogger(level string, dev bool, w io.Writer) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	opts := []zap.Option{zap.AddCaller()}
	if dev {
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		opts = append(opts, zap.Development())
	}
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), lvl), opts...), nil
}

func cmdServe(args []string, stderr io.Writer) error {
	var schemaFiles stringListFlag
	var corsOrigins stringListFlag
	dataFile := ""
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	maxBody := int64(1 << 20)
	docCache := 1000
	otelEndpoint := ""
	otelService := "gqlcore"
	logLevel := "info"
	logDev := false
	introspectionOn := true
	useSample := false

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&schemaFiles, "schema", "GraphQL SDL file")
	fs.StringVar(&dataFile, "data", dataFile, "JSON root value")
	fs.BoolVar(&useSample, "sample", useSample, "Use the built-in sample schema")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Int64Var(&maxBody, "server.max-body", maxBody, "Maximum request body size")
	fs.Var(&corsOrigins, "server.cors-origin", "Allowed CORS origin")
	fs.IntVar(&docCache, "server.document-cache", docCache, "Parsed documents to cache")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.BoolVar(&logDev, "log.dev", logDev, "Development logging")
	fs.BoolVar(&introspectionOn, "graphql.introspection", introspectionOn, "Serve introspection fields")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}

	logger, err := newLogger(logLevel, logDev, stderr)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sch, err := loadSchema(schemaFiles, useSample)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}
	rt, err := loadRuntime(sch, dataFile, useSample)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	sopts := []server.Option{
		server.WithLogger(logger),
		server.WithMaxBodyBytes(maxBody),
		server.WithDocumentCache(docCache),
		server.WithRootValue(rt.Root()),
	}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if len(corsOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(corsOrigins...))
	}
	execRT, execSchema, err := introspect(rt, sch, introspectionOn)
	if err != nil {
		return err
	}
	h, err := server.New(execRT, execSchema, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL server listening", zap.String("addr", addr), zap.Int("types", len(sch.Types)))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cmdCompileSDL(args []string, stdout, stderr io.Writer) error {
	var schemaFiles stringListFlag
	outFile := ""
	useSample := false
	fs := flag.NewFlagSet("compile-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&schemaFiles, "schema", "GraphQL SDL file")
	fs.BoolVar(&useSample, "sample", useSample, "Compile the built-in sample schema")
	fs.StringVar(&outFile, "out", outFile, "Write compiled SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, compileSDLUsage)
		return err
	}

	sch, err := loadSchema(schemaFiles, useSample)
	if err != nil {
		fmt.Fprint(stderr, compileSDLUsage)
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Fprint(stdout, sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}
