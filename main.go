package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/davecgh/go-spew/spew"

	"github.com/mcncl/goflatten/internal/analyzer"
	"github.com/mcncl/goflatten/internal/config"
	"github.com/mcncl/goflatten/internal/errors"
	"github.com/mcncl/goflatten/internal/flattener"
	"github.com/mcncl/goflatten/internal/formatter"
	"github.com/mcncl/goflatten/internal/models"
	"github.com/mcncl/goflatten/internal/parser"
	"github.com/mcncl/goflatten/internal/pointer"
	"github.com/mcncl/goflatten/internal/transformer"
)

// CLI defines the command-line interface
var CLI struct {
	Input       string `help:"Path to input JSON or YAML file. If not specified, reads from stdin." short:"i" type:"path"`
	Output      string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	From        string `help:"Input format (json, yaml). Defaults to the input file extension, then json." short:"F"`
	To          string `help:"Output format (json, yaml, msgpack)." short:"t"`
	Indent      int    `help:"Indentation width for JSON and YAML output."`
	Compact     bool   `help:"Write JSON on a single line." short:"c"`
	Pointer     string `help:"JSON Pointer of the subtree to flatten, e.g. /data/items." short:"P"`
	KeyCase     string `help:"Rename output keys (none, snake, screaming_snake, camel, lower_camel, kebab)." name:"key-case"`
	Report      bool   `help:"Print a summary of collapsed and dropped values to stderr." short:"R"`
	Transform   string `help:"Path to a JSON or YAML file of transformation steps run before flattening." short:"T" type:"path"`
	Config      string `help:"Path to config file. Defaults to the nearest .goflatten.yml." short:"C" type:"path"`
	Debug       bool   `help:"Enable debug logging." short:"d"`
	Version     bool   `help:"Show version information." short:"v"`
	Interactive bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	parser := kong.Must(&CLI,
		kong.Name("goflatten"),
		kong.Description("A tool to flatten nested JSON and YAML documents"),
		kong.UsageOnError(),
	)

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	_, err := parser.Parse(os.Args[1:])
	if err != nil {
		// Usage is already shown by kong.UsageOnError()
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("goflatten version %s\n", Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	ctx := &Context{
		Debug:  cfg.Dev.Debug,
		Config: cfg,
		Logger: newLogger(os.Stderr, cfg.Dev.Debug),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: goflatten --help\n")
		os.Exit(1)
	}
}

// newLogger builds a text logger, at debug level when requested
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig merges the config file with command-line flags
func loadConfig() (*config.Config, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, config.Overrides{
		InputFormat:   CLI.From,
		OutputFormat:  CLI.To,
		Indent:        CLI.Indent,
		Compact:       CLI.Compact,
		Pointer:       CLI.Pointer,
		KeyCase:       CLI.KeyCase,
		Report:        CLI.Report,
		Debug:         CLI.Debug,
		TransformFile: CLI.Transform,
	})
	if err != nil {
		return nil, errors.NewConfigError(err.Error(), err)
	}
	return cfg, nil
}

// run executes the main program logic
func run(ctx *Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := ctx.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// 1. Parse input
	doc, err := parseInput(cfg)
	if err != nil {
		return err
	}
	logger.Debug("input parsed", "root", doc.RootKind.String())

	// 2. Run transformation steps
	root := doc.Root
	if len(cfg.Transformations) > 0 {
		t, err := transformer.New(cfg.Transformations)
		if err != nil {
			return errors.NewConfigError(err.Error(), err)
		}
		root, err = t.Transform(root)
		if err != nil {
			return errors.NewTransformError(err.Error(), err)
		}
		logger.Debug("document transformed", "steps", t.Len(), "kind", root.Kind().String())
	}

	// 3. Select the subtree
	if cfg.Flatten.Pointer != "" {
		root, err = pointer.Resolve(root, cfg.Flatten.Pointer)
		if err != nil {
			return errors.NewPointerError(fmt.Sprintf("cannot select '%s'", cfg.Flatten.Pointer), err)
		}
		logger.Debug("subtree selected", "pointer", cfg.Flatten.Pointer, "kind", root.Kind().String())
	}

	// 4. Analyze what flattening changes
	report := analyzer.NewAnalyzer().AnalyzeAt(root, cfg.Flatten.Pointer)
	logger.Debug("flatten report",
		"collapsed", report.CollapsedSequences,
		"dropped_nulls", report.DroppedNulls,
		"dropped_empty", report.DroppedEmptySequences,
		"max_depth", report.MaxDepth,
	)

	// 5. Flatten and rename keys
	flat := flattener.Flatten(root)
	if cfg.RenamesKeys() {
		flat = flattener.RenameKeys(flat, cfg.GetKeyName)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		logger.Debug("flattened document", "tree", spew.Sdump(flat.Interface()))
	}

	// 6. Encode
	format, err := formatter.ParseFormat(cfg.Output.Format)
	if err != nil {
		return errors.NewFormatError("invalid output format", err)
	}
	out, err := formatter.NewFormatter(format,
		formatter.WithIndent(cfg.Output.Indent),
		formatter.WithCompact(cfg.Output.Compact),
	).Format(flat)
	if err != nil {
		return errors.NewFormatError(fmt.Sprintf("failed to encode %s", format), err)
	}

	if cfg.Flatten.Report {
		fmt.Fprint(stderrOf(ctx), report.String())
	}

	// 7. Output the result
	return writeOutput(ctx, out)
}

// parseInput reads the document from file or stdin
func parseInput(cfg *config.Config) (models.Document, error) {
	format, err := inputFormat(cfg)
	if err != nil {
		return models.Document{}, err
	}

	if CLI.Input != "" {
		return parser.ParseFileWithFormat(CLI.Input, format)
	}

	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to access stdin", err)
	}

	// Interactive mode or piped input
	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		if CLI.Interactive {
			return readInteractiveInput(format)
		}
		return models.Document{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read from stdin", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return models.Document{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return parser.ParseWithFormat(bytes.NewReader(data), format)
}

// inputFormat picks the configured format, then the file extension
func inputFormat(cfg *config.Config) (parser.Format, error) {
	if cfg.Input.Format != "" {
		format, err := parser.ParseFormat(cfg.Input.Format)
		if err != nil {
			return "", errors.NewInputError("invalid input format", err)
		}
		return format, nil
	}
	if CLI.Input != "" {
		return parser.FormatForPath(CLI.Input), nil
	}
	return parser.FormatJSON, nil
}

// writeOutput writes the encoded document to file or stdout
func writeOutput(ctx *Context, out []byte) error {
	if CLI.Output != "" {
		if err := os.WriteFile(CLI.Output, out, 0644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(stderrOf(ctx), "Flattened document written to %s\n", CLI.Output)
		return nil
	}

	stdout := ctx.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if _, err := stdout.Write(out); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

func stderrOf(ctx *Context) io.Writer {
	if ctx.Stderr != nil {
		return ctx.Stderr
	}
	return os.Stderr
}

// readInteractiveInput lets users paste a document and finish with Ctrl+D (EOF)
func readInteractiveInput(format parser.Format) (models.Document, error) {
	fmt.Fprintln(os.Stderr, "goflatten Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your document below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(os.Stdin)
	var builder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		builder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Document{}, errors.NewInputError("error reading input", err)
		}
	}

	data := builder.String()
	if strings.TrimSpace(data) == "" {
		return models.Document{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing document...")
	return parser.ParseStringWithFormat(data, format)
}
