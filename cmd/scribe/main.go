// Package main is the entry point for the scribe command.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/dshills/scribe/internal/app"
	"github.com/dshills/scribe/internal/config"
	"github.com/dshills/scribe/internal/engine/model"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the parsed command line.
type options struct {
	configPath  string
	logLevel    string
	selection   string
	suggestion  string
	generator   string
	highlight   string
	out         string
	format      string
	decorations bool
	watch       bool
	commands    []string
	input       string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	opts, code, done := parseFlags(args, out, errOut)
	if done {
		return code
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, out, errOut); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, out, errOut io.Writer) (options, int, bool) {
	var opts options
	var showVersion, showHelp bool

	fs := flag.NewFlagSet("scribe", flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVarP(&opts.selection, "select", "s", "", "Selection as from:to")
	fs.StringVar(&opts.suggestion, "suggestion", "", "Run an extraction with this suggestion")
	fs.StringVarP(&opts.generator, "generator", "g", "", "Extraction generator (echo, mirror, upper)")
	fs.StringVar(&opts.highlight, "highlight", "", "Persistent highlight as from:to")
	fs.StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")
	fs.StringVarP(&opts.format, "format", "f", "", "Output format (json, yaml, text)")
	fs.BoolVarP(&opts.decorations, "decorations", "d", false, "Print decorations")
	fs.BoolVarP(&opts.watch, "watch", "w", false, "Keep running and apply config file changes (needs --config)")
	fs.StringArrayVarP(&opts.commands, "command", "x", nil, "Run a command as name=arg (repeatable)")
	fs.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show help message")

	fs.Usage = func() {
		fmt.Fprintf(errOut, "Scribe - rich-text document engine\n\n")
		fmt.Fprintf(errOut, "Usage: scribe [options] [document]\n\n")
		fmt.Fprintf(errOut, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(errOut, "\nExamples:\n")
		fmt.Fprintf(errOut, "  scribe doc.json -f text                         Print the document text\n")
		fmt.Fprintf(errOut, "  scribe doc.json -s 14:19 -g upper --suggestion x  Rewrite a selection\n")
		fmt.Fprintf(errOut, "  scribe doc.yaml -s 8:13 -x toggleMark=bold -o out.json\n")
		fmt.Fprintf(errOut, "  scribe doc.json -c scribe.toml -d -w                Reprint decorations on config change\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, 0, true
		}
		return opts, 2, true
	}

	if showHelp {
		fs.Usage()
		return opts, 0, true
	}
	if showVersion {
		fmt.Fprintf(out, "Scribe %s\n", version)
		fmt.Fprintf(out, "Commit: %s\n", commit)
		fmt.Fprintf(out, "Built: %s\n", date)
		return opts, 0, true
	}

	if opts.watch && opts.configPath == "" {
		fmt.Fprintf(errOut, "Error: --watch requires --config\n")
		return opts, 2, true
	}

	switch fs.NArg() {
	case 0:
	case 1:
		opts.input = fs.Arg(0)
	default:
		fmt.Fprintf(errOut, "Error: expected at most one document, got %d\n", fs.NArg())
		return opts, 2, true
	}
	return opts, 0, false
}

func execute(ctx context.Context, opts options, out, errOut io.Writer) error {
	loadOpts := []config.LoadOption{config.WithEnv()}
	if opts.configPath != "" {
		loadOpts = append(loadOpts, config.WithRequiredFile(opts.configPath))
	}
	if opts.logLevel != "" {
		loadOpts = append(loadOpts, config.WithOverride("logging.level", opts.logLevel))
	}
	if opts.generator != "" {
		loadOpts = append(loadOpts, config.WithOverride("extract.generator", opts.generator))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return err
	}

	var doc *model.Node
	if opts.input != "" {
		if doc, err = app.ReadDocument(opts.input); err != nil {
			return err
		}
	}

	a, err := app.New(app.Options{Config: cfg, Document: doc, LogOutput: errOut})
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.selection != "" {
		from, to, err := parseRange(opts.selection)
		if err != nil {
			return err
		}
		if err := a.Select(from, to); err != nil {
			return err
		}
	}
	if opts.highlight != "" {
		from, to, err := parseRange(opts.highlight)
		if err != nil {
			return err
		}
		if err := a.Highlight(from, to); err != nil {
			return err
		}
	}
	for _, inv := range opts.commands {
		if err := a.Execute(inv); err != nil {
			return err
		}
	}
	if opts.suggestion != "" {
		if _, err := a.Extract(ctx, opts.suggestion); err != nil {
			return err
		}
	}

	p := &printer{out: out}
	if opts.watch {
		stopWatch, err := config.Watch(config.NewLoadOptions(loadOpts...), p.reload(a, opts))
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	p.mu.Lock()
	err = writeOutput(a, opts, out)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if opts.decorations {
		p.decorations(a)
	}
	if opts.watch {
		<-ctx.Done()
	}
	return nil
}

// printer serialises output between the main flow and config reloads.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printer) decorations(a *app.Application) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range a.Decorations().All() {
		fmt.Fprintln(p.out, d)
	}
}

// reload applies a reloaded configuration to a and, with --decorations,
// prints the decorations it produces.
func (p *printer) reload(a *app.Application, opts options) config.ReloadFunc {
	apply := a.Reload()
	return func(cfg *config.Config, err error) {
		apply(cfg, err)
		if err == nil && opts.decorations {
			p.decorations(a)
		}
	}
}

func writeOutput(a *app.Application, opts options, out io.Writer) error {
	format := app.FormatText
	if opts.out != "" {
		format = app.FormatForPath(opts.out)
	}
	if opts.format != "" {
		f, err := app.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	}

	doc := a.Engine().Doc()
	if opts.out != "" && opts.out != "-" {
		return app.WriteDocument(opts.out, doc, format)
	}
	data, err := app.EncodeDocument(doc, format)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// parseRange parses "from:to", or a single position for a cursor.
func parseRange(s string) (int, int, error) {
	fromStr, toStr, found := strings.Cut(s, ":")
	from, err := strconv.Atoi(strings.TrimSpace(fromStr))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	if !found {
		return from, from, nil
	}
	to, err := strconv.Atoi(strings.TrimSpace(toStr))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	return from, to, nil
}
