package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stockvoice-go/internal/cli/api"
	"github.com/yndnr/stockvoice-go/internal/cli/config"
	"github.com/yndnr/stockvoice-go/internal/cli/gateway"
	"github.com/yndnr/stockvoice-go/internal/cli/output"
	"github.com/yndnr/stockvoice-go/internal/cli/session"
	"github.com/yndnr/stockvoice-go/internal/infra/buildinfo"
	"github.com/yndnr/stockvoice-go/internal/infra/shutdown"
	"github.com/yndnr/stockvoice-go/internal/infra/tlsroots"
	"github.com/yndnr/stockvoice-go/internal/telemetry/logger"
	"github.com/yndnr/stockvoice-go/internal/telemetry/metric"
)

const runtimeKey = "runtime"

// Option customizes the application.
type Option func(*appOptions)

type appOptions struct {
	store    session.Store
	runtime  *Runtime
	shutdown *shutdown.Handler
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
}

// WithStore replaces the durable session store. The app does not close it.
func WithStore(s session.Store) Option {
	return func(o *appOptions) {
		o.store = s
	}
}

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(o *appOptions) {
		o.in = in
		o.out = out
		o.errOut = errOut
	}
}

// WithShutdown registers the runtime cleanup on a forced exit.
func WithShutdown(h *shutdown.Handler) Option {
	return func(o *appOptions) {
		o.shutdown = h
	}
}

// withRuntime shares an existing runtime; used by the shell.
func withRuntime(rt *Runtime) Option {
	return func(o *appOptions) {
		o.runtime = rt
	}
}

// App creates the CLI application.
func App(opts ...Option) *cli.App {
	o := &appOptions{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	app := &cli.App{
		Name:      "stockvoice-cli",
		Usage:     "Configure the WhatsApp stock voice bot",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Reader:    o.in,
		Writer:    o.out,
		ErrWriter: o.errOut,
		Metadata:  map[string]any{},
		Commands: []*cli.Command{
			RegisterCommand(),
			LoginCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			ClientCommand(),
			ProductCommand(),
			WhatsAppCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			if o.runtime != nil {
				c.App.Metadata[runtimeKey] = o.runtime
				return nil
			}
			rt, err := newRuntime(c, o)
			if err != nil {
				return err
			}
			c.App.Metadata[runtimeKey] = rt
			return nil
		},
		After: func(c *cli.Context) error {
			if o.runtime != nil {
				return nil
			}
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
				return rt.Close()
			}
			return nil
		},
	}

	if o.runtime != nil {
		// Errors are reported by the shell; never exit the process.
		app.ExitErrHandler = func(*cli.Context, error) {}
	}
	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file",
			EnvVars: []string{"STOCKVOICE_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Backend API address (e.g., https://api.example.com/api)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout (e.g., 10s)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// flagOverrides returns the explicitly set global flags as configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	set := func(section, key string, value any) {
		m, ok := overrides[section].(map[string]any)
		if !ok {
			m = map[string]any{}
			overrides[section] = m
		}
		m[key] = value
	}

	if c.IsSet("server") {
		set("server", "address", c.String("server"))
	}
	if c.IsSet("timeout") {
		set("server", "timeout", c.Duration("timeout").String())
	}
	if c.IsSet("output") {
		set("output", "format", c.String("output"))
	}
	if c.IsSet("wide") {
		set("output", "wide", c.Bool("wide"))
	}
	if c.Bool("verbose") {
		set("log", "level", "debug")
	}
	return overrides
}

// Runtime holds what the commands of one process share. The session store
// and the gateway are opened on first use so configuration commands work
// without them.
type Runtime struct {
	ConfigPath string
	Config     *config.Config
	Logger     logger.Logger
	Metrics    *metric.Registry

	in        io.Reader
	overrides map[string]any
	store     session.Store
	ownsStore bool
	service   *api.Service
	closeMu   sync.Mutex
}

func newRuntime(c *cli.Context, o *appOptions) (*Runtime, error) {
	rt := &Runtime{
		ConfigPath: config.ExpandHome(c.String("config")),
		Metrics:    metric.NewRegistry(),
		in:         o.in,
		overrides:  flagOverrides(c),
		store:      o.store,
	}

	cfg, err := config.Load(rt.ConfigPath, rt.overrides)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	rt.Config = cfg
	rt.Logger = logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: o.errOut,
	})
	rt.Logger.Debug("configuration loaded", "path", rt.ConfigPath, "found", cfg.FileLoaded, "server", cfg.Server.Address)

	if o.shutdown != nil {
		o.shutdown.OnShutdown(func(context.Context) error {
			return rt.Close()
		})
	}
	return rt, nil
}

// Reload re-reads the configuration. The session store stays open; the
// gateway is rebuilt on next use.
func (rt *Runtime) Reload() error {
	cfg, err := config.Load(rt.ConfigPath, rt.overrides)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	rt.Config = cfg
	rt.service = nil
	logger.SetLevel(cfg.Log.Level)
	rt.Logger.Debug("configuration reloaded", "path", rt.ConfigPath)
	return nil
}

// Store opens the durable session store on first use.
func (rt *Runtime) Store() (session.Store, error) {
	if rt.store != nil {
		return rt.store, nil
	}

	key, err := session.LoadOrCreateKey(rt.Config.Session.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	sealer, err := session.NewSealer(key)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	store, err := session.OpenBadger(rt.Config.Session.Dir,
		session.WithSealer(sealer),
		session.WithLogger(rt.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	rt.store = store
	rt.ownsStore = true
	return store, nil
}

// Service builds the api service on first use.
func (rt *Runtime) Service() (*api.Service, error) {
	if rt.service != nil {
		return rt.service, nil
	}
	if err := rt.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := rt.Store()
	if err != nil {
		return nil, err
	}
	tlsCfg, err := tlsroots.ClientConfig(rt.Config.Server.CAFile, rt.Logger)
	if err != nil {
		return nil, err
	}
	gw, err := gateway.New(store, gateway.Options{
		BaseAddress:    rt.Config.Server.Address,
		DefaultTimeout: rt.Config.Server.Timeout,
		DefaultHeaders: rt.Config.Server.Headers,
		UserAgent:      buildinfo.UserAgent(),
		TLSConfig:      tlsCfg,
		Logger:         rt.Logger,
		Metrics:        rt.Metrics,
	})
	if err != nil {
		return nil, err
	}

	rt.Logger.Debug("gateway ready", "base", gw.BaseURL(), "timeout", gw.Timeout())
	rt.service = api.New(gw, store)
	return rt.service, nil
}

// Formatter returns the formatter for this invocation. A shell line may
// override the configured format with --output.
func (rt *Runtime) Formatter(c *cli.Context) (output.Formatter, error) {
	name := rt.Config.Output.Format
	if c.IsSet("output") {
		name = c.String("output")
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	wide := rt.Config.Output.Wide || c.Bool("wide")
	return output.NewFormatter(format, wide), nil
}

// Close releases the session store when the runtime opened it.
func (rt *Runtime) Close() error {
	rt.closeMu.Lock()
	defer rt.closeMu.Unlock()

	if !rt.ownsStore {
		return nil
	}
	closer, ok := rt.store.(io.Closer)
	if !ok {
		return nil
	}
	rt.ownsStore = false
	return closer.Close()
}

// runtimeFrom retrieves the runtime installed by Before.
func runtimeFrom(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	return nil, errors.New("runtime not initialized")
}

// serviceFrom returns the runtime and its api service.
func serviceFrom(c *cli.Context) (*Runtime, *api.Service, error) {
	rt, err := runtimeFrom(c)
	if err != nil {
		return nil, nil, err
	}
	svc, err := rt.Service()
	if err != nil {
		return nil, nil, err
	}
	return rt, svc, nil
}

// render prints data with the selected formatter.
func render(c *cli.Context, data any) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	f, err := rt.Formatter(c)
	if err != nil {
		return err
	}
	return f.Format(c.App.Writer, data)
}

// tableOutput reports whether the table format is selected.
func tableOutput(c *cli.Context) bool {
	rt, err := runtimeFrom(c)
	if err != nil {
		return true
	}
	f, err := rt.Formatter(c)
	if err != nil {
		return true
	}
	_, ok := f.(*output.TableFormatter)
	return ok
}

// ReportError prints err for a person, with a hint for the common cases.
func ReportError(w io.Writer, err error) {
	msg := err.Error()
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		msg = gateway.UserMessage(err)
	}
	fmt.Fprintf(w, "error: %s\n", msg)

	switch {
	case gateway.IsUnauthorized(err), errors.Is(err, api.ErrNotAuthenticated):
		fmt.Fprintln(w, "hint: sign in with `stockvoice-cli login`")
	case gateway.IsTransport(err):
		fmt.Fprintln(w, "hint: check server.address and that the backend is running")
	}
}
