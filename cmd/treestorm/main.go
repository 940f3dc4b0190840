// Package main is the entry point for the treestorm command, which loads a
// JSON document, replays an operation log against it, normalizes it and
// prints the result.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/pretty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/dshills/treestorm/internal/config"
	"github.com/dshills/treestorm/internal/engine"
	"github.com/dshills/treestorm/internal/engine/event"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitUsage     = 2
	exitViolation = 3
)

// errUsage marks flag errors that were already reported.
var errUsage = errors.New("usage")

type options struct {
	configPath string
	opsPath    string
	outPath    string
	logLevel   string
	normalize  bool
	check      bool
	diff       bool
	text       bool
	compact    bool
	document   string

	// exit is set when a flag such as -version was fully handled.
	exit bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, exit, err := parseFlags(args, stdout, stderr)
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exit
	}
	if opts.exit {
		return exitOK
	}

	cfg := config.Default()
	if opts.configPath != "" {
		if cfg, err = config.Load(opts.configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger := newLogger(cfg.LogLevel(), stderr)
	defer logger.Sync() //nolint:errcheck
	if opts.configPath != "" {
		logger.Info("config loaded",
			zap.String("path", opts.configPath),
			zap.Int("rules", len(cfg.Schema.Rules)),
			zap.Bool("scripts", cfg.HasScripts()))
	}

	code, err := process(opts, cfg, logger, stdin, stdout)
	if err != nil {
		logger.Error("treestorm failed", zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

// parseFlags returns the exit code to use when err is non-nil.
func parseFlags(args []string, stdout, stderr io.Writer) (options, int, error) {
	var (
		opts        options
		showVersion bool
	)
	fs := flag.NewFlagSet("treestorm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.opsPath, "ops", "", "Operation log to replay (JSON lines)")
	fs.StringVar(&opts.outPath, "out", "", "Write output to file instead of stdout")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.normalize, "normalize", false, "Normalize the whole document")
	fs.BoolVar(&opts.normalize, "n", false, "Normalize the whole document (shorthand)")
	fs.BoolVar(&opts.check, "check", false, "Report schema violations and exit non-zero if any")
	fs.BoolVar(&opts.diff, "diff", false, "Print a merge patch from the input document to the result")
	fs.BoolVar(&opts.text, "text", false, "Print the document's plain text")
	fs.BoolVar(&opts.compact, "compact", false, "Print compact JSON")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "treestorm - structured document editing engine\n\n")
		fmt.Fprintf(stderr, "Usage: treestorm [options] [document.json]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  treestorm doc.json                  Print the document\n")
		fmt.Fprintf(stderr, "  treestorm -ops edits.jsonl doc.json Replay edits\n")
		fmt.Fprintf(stderr, "  treestorm -c schema.toml -n doc.json Normalize against a schema\n")
		fmt.Fprintf(stderr, "  cat doc.json | treestorm -text -     Read from stdin\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, exitOK, errUsage
		}
		return opts, exitUsage, errUsage
	}

	if showVersion {
		fmt.Fprintf(stdout, "treestorm %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		opts.exit = true
		return opts, exitOK, nil
	}

	opts.logLevel = strings.ToLower(opts.logLevel)
	switch opts.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return opts, exitUsage, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.logLevel)
	}
	if opts.diff && opts.text {
		return opts, exitUsage, errors.New("-diff and -text are mutually exclusive")
	}

	switch fs.NArg() {
	case 0:
	case 1:
		opts.document = fs.Arg(0)
	default:
		return opts, exitUsage, fmt.Errorf("expected at most one document, got %d", fs.NArg())
	}
	return opts, exitOK, nil
}

func newLogger(level zapcore.Level, w io.Writer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, zap.ErrorOutput(zapcore.AddSync(w)))
}

func process(opts options, cfg *config.Config, logger *zap.Logger, stdin io.Reader, stdout io.Writer) (int, error) {
	engOpts, rt, err := cfg.EngineOptions(logger)
	if err != nil {
		return exitError, err
	}
	if rt != nil {
		defer rt.Close()
	}

	eng, err := openDocument(opts.document, stdin, engOpts)
	if err != nil {
		return exitError, err
	}
	if _, err := eng.Subscribe("**", func(_ context.Context, ev event.Event) error {
		logger.Debug("engine event", zap.String("topic", string(ev.Topic)), zap.Any("payload", ev.Payload))
		return nil
	}); err != nil {
		return exitError, err
	}
	start := eng.CreateSnapshot("input")

	if opts.opsPath != "" {
		f, err := os.Open(opts.opsPath)
		if err != nil {
			return exitError, err
		}
		n, err := eng.ApplyLog(f)
		f.Close()
		logger.Info("operation log replayed",
			zap.String("path", opts.opsPath),
			zap.Int("operations", n))
		if err != nil {
			return exitError, err
		}
	}

	if opts.normalize {
		if err := eng.Normalize(true); err != nil {
			return exitError, err
		}
	}

	code := exitOK
	if opts.check {
		for _, v := range eng.Check() {
			logger.Warn("schema violation", zap.Error(v))
			code = exitViolation
		}
	}

	var out []byte
	switch {
	case opts.text:
		out = []byte(eng.Text() + "\n")
	case opts.diff:
		if out, err = eng.DiffSnapshot(start); err != nil {
			return exitError, err
		}
	default:
		if out, err = eng.MarshalDocument(); err != nil {
			return exitError, err
		}
	}

	if !opts.text {
		out = format(out, opts.compact, opts.outPath == "" && isTerminal(stdout))
	}

	if opts.outPath != "" {
		return code, os.WriteFile(opts.outPath, out, 0o644)
	}
	_, err = stdout.Write(out)
	return code, err
}

func openDocument(path string, stdin io.Reader, opts []engine.Option) (*engine.Engine, error) {
	switch path {
	case "":
		return engine.New(opts...), nil
	case "-":
		return engine.NewFromReader(stdin, opts...)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	eng, err := engine.NewFromReader(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return eng, nil
}

func format(data []byte, compact, color bool) []byte {
	if compact {
		data = pretty.Ugly(data)
		return append(bytes.TrimSpace(data), '\n')
	}
	data = pretty.PrettyOptions(data, &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: true})
	if color {
		data = pretty.Color(data, nil)
	}
	return data
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
