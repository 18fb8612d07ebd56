package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/yndnr/stockvoice-go/internal/infra/confloader"
	"github.com/yndnr/stockvoice-go/internal/telemetry/logger"
)

// DefaultPrompt is used when Options.Prompt is nil.
const DefaultPrompt = "stockvoice> "

// Options configures a REPL.
type Options struct {
	Input  io.Reader
	Output io.Writer

	// Prompt is evaluated before every line.
	Prompt func() string

	// Execute runs one command line, already split into words.
	Execute func(args []string) error

	// OnError reports a failed line. Defaults to "error: <err>" on Output.
	OnError func(err error)

	// Stats writes metrics for the stats built-in.
	Stats func(w io.Writer) error

	History   *History
	Completer *Completer

	// When ConfigFile changes on disk, Reload runs before the next prompt.
	ConfigFile string
	Reload     func() error

	Logger logger.Logger
}

// REPL is the Read-Eval-Print Loop.
type REPL struct {
	opts    Options
	changed atomic.Bool
}

// New creates a REPL. Unset streams default to stdin and stdout.
func New(opts Options) *REPL {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.History == nil {
		opts.History = NewHistory("", DefaultHistorySize)
	}
	if opts.Completer == nil {
		opts.Completer = NewCompleter()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	r := &REPL{opts: opts}
	if r.opts.OnError == nil {
		r.opts.OnError = func(err error) {
			fmt.Fprintf(r.opts.Output, "error: %v\n", err)
		}
	}
	return r
}

// Run reads lines until exit, quit or end of input.
func (r *REPL) Run() error {
	if err := r.opts.History.Load(); err != nil {
		r.opts.Logger.Warn("failed to load history", "error", err)
	} else {
		r.opts.Logger.Debug("history loaded", "entries", r.opts.History.Len())
	}
	defer func() {
		if err := r.opts.History.Save(); err != nil {
			r.opts.Logger.Warn("failed to save history", "error", err)
		}
	}()

	stop := r.watchConfig()
	defer stop()

	reader := bufio.NewReader(r.opts.Input)
	for {
		r.reloadIfChanged()
		fmt.Fprint(r.opts.Output, r.prompt())

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil

		if r.handle(line) {
			return nil
		}
		if eof {
			fmt.Fprintln(r.opts.Output)
			return nil
		}
	}
}

// handle runs one line and reports whether the shell should exit.
func (r *REPL) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if prefix, ok := strings.CutSuffix(line, "?"); ok {
		r.complete(prefix)
		return false
	}

	r.opts.History.Add(line)

	switch line {
	case "exit", "quit":
		return true
	case "stats":
		r.stats()
		return false
	case "history":
		for i, entry := range r.opts.History.Entries() {
			fmt.Fprintf(r.opts.Output, "%4d  %s\n", i+1, entry)
		}
		return false
	}

	args, err := Split(line)
	if err != nil {
		r.opts.OnError(err)
		return false
	}
	if r.opts.Execute == nil {
		return false
	}
	if err := r.opts.Execute(args); err != nil {
		r.opts.OnError(err)
	}
	return false
}

func (r *REPL) complete(prefix string) {
	suggestions := r.opts.Completer.Complete(prefix)
	if len(suggestions) == 0 {
		fmt.Fprintf(r.opts.Output, "no command matches %q\n", strings.TrimSpace(prefix))
		return
	}
	for _, s := range suggestions {
		fmt.Fprintln(r.opts.Output, s)
	}
}

func (r *REPL) stats() {
	if r.opts.Stats == nil {
		fmt.Fprintln(r.opts.Output, "no metrics available")
		return
	}
	if err := r.opts.Stats(r.opts.Output); err != nil {
		r.opts.OnError(err)
	}
}

func (r *REPL) prompt() string {
	if r.opts.Prompt == nil {
		return DefaultPrompt
	}
	return r.opts.Prompt()
}

func (r *REPL) watchConfig() (stop func()) {
	if r.opts.ConfigFile == "" || r.opts.Reload == nil {
		return func() {}
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(r.opts.Logger))
	if err != nil {
		r.opts.Logger.Warn("config reload disabled", "error", err)
		return func() {}
	}
	if err := w.Watch(r.opts.ConfigFile); err != nil {
		_ = w.Stop()
		r.opts.Logger.Warn("config reload disabled", "path", r.opts.ConfigFile, "error", err)
		return func() {}
	}
	w.OnChange(func(string) { r.changed.Store(true) })
	w.StartAsync()

	return func() { _ = w.Stop() }
}

// reloadIfChanged runs between commands so a reload never races a running one.
func (r *REPL) reloadIfChanged() {
	if !r.changed.Swap(false) {
		return
	}
	if err := r.opts.Reload(); err != nil {
		r.opts.OnError(fmt.Errorf("reload config: %w", err))
		return
	}
	fmt.Fprintln(r.opts.Output, "configuration reloaded")
}
