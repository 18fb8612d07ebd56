package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stockvoice-go/internal/cli/config"
	"github.com/yndnr/stockvoice-go/internal/cli/output"
)

// ConfigCommand returns the config command group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the merged configuration",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the merged configuration",
				Action: configValidate,
			},
			{
				Name:  "init",
				Usage: "Write a configuration file with the defaults",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

// configView is the printable form of the configuration.
type configView struct {
	Path   string         `json:"path" yaml:"path"`
	Found  bool           `json:"found" yaml:"found"`
	Config map[string]any `json:"config" yaml:"config"`
	cfg    *config.Config
}

func (v configView) Table(bool) *output.Table {
	headers := make([]string, 0, len(v.cfg.Server.Headers))
	for k, val := range v.cfg.Server.Headers {
		headers = append(headers, k+"="+val)
	}
	sort.Strings(headers)

	file := v.Path
	if !v.Found {
		file += " (not found, using defaults)"
	}
	return output.KeyValue(
		[2]string{"file", file},
		[2]string{"server.address", v.cfg.Server.Address},
		[2]string{"server.timeout", v.cfg.Server.Timeout.String()},
		[2]string{"server.headers", strings.Join(headers, ", ")},
		[2]string{"server.cafile", v.cfg.Server.CAFile},
		[2]string{"session.dir", v.cfg.Session.Dir},
		[2]string{"session.keyfile", v.cfg.Session.KeyFile},
		[2]string{"output.format", v.cfg.Output.Format},
		[2]string{"output.wide", fmt.Sprint(v.cfg.Output.Wide)},
		[2]string{"log.level", v.cfg.Log.Level},
		[2]string{"log.format", v.cfg.Log.Format},
	)
}

func configShow(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	redacted := rt.Config.Redacted()
	return render(c, configView{
		Path:   rt.ConfigPath,
		Found:  rt.Config.FileLoaded,
		Config: redacted.Map(),
		cfg:    redacted,
	})
}

func configValidate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	if err := rt.Config.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid:\n%w", err)
	}
	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	return nil
}

func configInit(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	path := rt.ConfigPath
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Configuration written to %s\n", path)
	return nil
}
