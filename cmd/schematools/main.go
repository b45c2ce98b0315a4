package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/erraggy/schematools"
	"github.com/erraggy/schematools/internal/mcpserver"
	"github.com/erraggy/schematools/jsonschema"
	"github.com/erraggy/schematools/schemaerrors"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("schematools v%s\n", schematools.Version())
	case "help", "-h", "--help":
		printUsage()
	case "validate":
		if err := handleValidate(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "resolve":
		if err := handleResolve(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := handleMCP(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// validateFlags contains flags for the validate command
type validateFlags struct {
	baseURI string
	remote  bool
	verbose bool
}

func setupValidateFlags() (*flag.FlagSet, *validateFlags) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags := &validateFlags{}

	fs.StringVar(&flags.baseURI, "base", "", "base URI for schema resolution (default: file:// location of the schema)")
	fs.BoolVar(&flags.remote, "remote", false, "fetch schemas for unresolved remote $refs over HTTP(S)")
	fs.BoolVar(&flags.verbose, "verbose", false, "log schema resolution steps to stderr")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: schematools validate [flags] <schema> <value>\n\n")
		_, _ = fmt.Fprintf(fs.Output(), "Validate an instance value file (JSON or YAML) against a JSON Schema.\n\n")
		_, _ = fmt.Fprintf(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(fs.Output(), "\nExamples:\n")
		_, _ = fmt.Fprintf(fs.Output(), "  schematools validate schema.json config.yaml\n")
		_, _ = fmt.Fprintf(fs.Output(), "  schematools validate --base https://example.com/schemas/config schema.json config.json\n")
		_, _ = fmt.Fprintf(fs.Output(), "  schematools validate --remote api-schema.json payload.json\n")
		_, _ = fmt.Fprintf(fs.Output(), "\nExit Status:\n")
		_, _ = fmt.Fprintf(fs.Output(), "  0    Value is valid\n")
		_, _ = fmt.Fprintf(fs.Output(), "  1    Value is invalid or an error occurred\n")
	}

	return fs, flags
}

func handleValidate(args []string) error {
	fs, flags := setupValidateFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("validate command requires a schema file and a value file")
	}

	schemaPath := fs.Arg(0)
	valuePath := fs.Arg(1)

	repo, schema, err := loadRepository(schemaPath, flags.baseURI, flags.remote, flags.verbose)
	if err != nil {
		return err
	}

	valueData, err := os.ReadFile(valuePath)
	if err != nil {
		return fmt.Errorf("reading value file: %w", err)
	}
	value, err := jsonschema.ParseValue(valueData)
	if err != nil {
		return fmt.Errorf("parsing value file: %w", err)
	}

	v, err := repo.Validator(schema)
	if err != nil {
		return fmt.Errorf("building validator: %w", err)
	}

	startTime := time.Now()
	err = v.Validate(context.Background(), jsonschema.NewValidatorContext(), value)
	totalTime := time.Since(startTime)

	fmt.Printf("JSON Schema Validator\n")
	fmt.Printf("=====================\n\n")
	fmt.Printf("schematools version: %s\n", schematools.Version())
	fmt.Printf("Schema: %s\n", schemaPath)
	fmt.Printf("Value: %s\n", valuePath)
	fmt.Printf("Mode: %s\n", validationMode(v))
	fmt.Printf("Total Time: %v\n\n", totalTime)

	if err == nil {
		fmt.Println("✓ Validation passed")
		return nil
	}

	var vErr *schemaerrors.ValidationError
	if errors.As(err, &vErr) {
		fmt.Println("✗ Validation failed:")
		location := vErr.InstanceLocation
		if location == "" {
			location = "(root)"
		}
		fmt.Printf("  location: %s\n", location)
		if vErr.Keyword != "" {
			fmt.Printf("  keyword:  %s\n", vErr.Keyword)
		}
		fmt.Printf("  %s\n", vErr.Error())
		os.Exit(1)
	}
	return err
}

func validationMode(v jsonschema.Validator) string {
	if v.IsSync() {
		return "synchronous"
	}
	return "asynchronous (remote references)"
}

// resolveFlags contains flags for the resolve command
type resolveFlags struct {
	baseURI string
	verbose bool
}

func setupResolveFlags() (*flag.FlagSet, *resolveFlags) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags := &resolveFlags{}

	fs.StringVar(&flags.baseURI, "base", "", "base URI for schema resolution (default: file:// location of the schema)")
	fs.BoolVar(&flags.verbose, "verbose", false, "log schema resolution steps to stderr")

	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: schematools resolve [flags] <schema>\n\n")
		_, _ = fmt.Fprintf(fs.Output(), "Dereference a JSON Schema and print its flat URI index.\n\n")
		_, _ = fmt.Fprintf(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(fs.Output(), "\nExamples:\n")
		_, _ = fmt.Fprintf(fs.Output(), "  schematools resolve schema.json\n")
		_, _ = fmt.Fprintf(fs.Output(), "  schematools resolve --base https://example.com/schemas/config schema.yaml\n")
	}

	return fs, flags
}

func handleResolve(args []string) error {
	fs, flags := setupResolveFlags()

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("resolve command requires exactly one schema file")
	}

	schemaPath := fs.Arg(0)
	repo, _, err := loadRepository(schemaPath, flags.baseURI, false, flags.verbose)
	if err != nil {
		return err
	}

	uris := repo.URIs()
	fmt.Printf("JSON Schema Resolver\n")
	fmt.Printf("====================\n\n")
	fmt.Printf("schematools version: %s\n", schematools.Version())
	fmt.Printf("Schema: %s\n", schemaPath)
	fmt.Printf("Indexed URIs: %d\n\n", len(uris))
	for _, uri := range uris {
		fmt.Printf("  %s\n", uri)
	}
	return nil
}

func handleMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "Usage: schematools mcp\n\n")
		_, _ = fmt.Fprintf(fs.Output(), "Run the schematools MCP server over stdio.\n")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return mcpserver.Run(ctx)
}

// loadRepository parses the schema file and dereferences it into a new
// repository. The base URI defaults to the schema's file:// location.
func loadRepository(schemaPath, baseURI string, remote, verbose bool) (*jsonschema.Repository, *jsonschema.Schema, error) {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading schema file: %w", err)
	}
	schema, err := jsonschema.ParseSchema(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing schema: %w", err)
	}

	if baseURI == "" {
		absPath, err := filepath.Abs(schemaPath)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving schema path: %w", err)
		}
		baseURI = (&url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}).String()
	}

	opts := []jsonschema.Option{jsonschema.WithBaseURI(baseURI)}
	if remote {
		opts = append(opts, jsonschema.WithLoader(jsonschema.NewHTTPLoader(nil)))
	}
	if verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, jsonschema.WithLogger(jsonschema.NewSlogAdapter(slog.New(handler))))
	}

	repo, err := jsonschema.NewRepository(opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.Dereference(schema); err != nil {
		return nil, nil, fmt.Errorf("dereferencing schema: %w", err)
	}
	return repo, schema, nil
}

func printUsage() {
	fmt.Println(`schematools - JSON Schema Tools

Usage:
  schematools <command> [options]

Commands:
  validate    Validate an instance value file against a JSON Schema
  resolve     Dereference a JSON Schema and print its URI index
  mcp         Run the schematools MCP server over stdio
  version     Show version information
  help        Show this help message

Examples:
  schematools validate schema.json config.yaml
  schematools validate --remote api-schema.json payload.json
  schematools resolve --base https://example.com/schemas/config schema.json
  schematools mcp

Run 'schematools <command> --help' for more information on a command.`)
}
