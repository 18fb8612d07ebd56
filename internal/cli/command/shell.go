package command

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stockvoice-go/internal/cli/config"
	"github.com/yndnr/stockvoice-go/internal/cli/output"
	"github.com/yndnr/stockvoice-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive shell",
		Description: "Runs commands without the program name, e.g. `product list`.\n" +
			"End a prefix with ? to list matching commands; `stats` shows request metrics.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "History file (empty keeps history in memory)",
				Value: config.DefaultHistoryPath(),
			},
		},
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if _, err := rt.Service(); err != nil {
		return err
	}

	out, errOut := c.App.Writer, c.App.ErrWriter
	known := commandNames(c.App.Commands)

	r := repl.New(repl.Options{
		Input:  rt.in,
		Output: out,
		Prompt: rt.prompt,
		Execute: func(args []string) error {
			name := args[0]
			if name == "shell" {
				return errors.New("already in the shell")
			}
			if !strings.HasPrefix(name, "-") && !known[name] {
				return fmt.Errorf("unknown command %q, end a prefix with ? to list commands", name)
			}
			sub := App(withRuntime(rt), WithIO(rt.in, out, errOut))
			return sub.Run(append([]string{c.App.Name}, args...))
		},
		OnError:    func(err error) { ReportError(errOut, err) },
		Stats:      rt.printStats,
		History:    repl.NewHistory(config.ExpandHome(c.String("history")), repl.DefaultHistorySize),
		Completer:  repl.NewCompleter(commandPaths(c.App.Commands)...),
		ConfigFile: rt.ConfigPath,
		Reload:     rt.Reload,
		Logger:     rt.Logger,
	})

	fmt.Fprintf(out, "%s %s, type `help` for commands and `exit` to leave\n", c.App.Name, c.App.Version)
	return r.Run()
}

// prompt shows who is signed in, so a session cleared by the previous
// command is visible immediately.
func (rt *Runtime) prompt() string {
	store, err := rt.Store()
	if err != nil {
		return "stockvoice(?)> "
	}
	sess, ok := store.Read()
	if !ok {
		return "stockvoice(anon)> "
	}
	return fmt.Sprintf("stockvoice(%s)> ", sess.UserEmail)
}

func (rt *Runtime) printStats(w io.Writer) error {
	samples, err := rt.Metrics.Summary()
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		_, err := fmt.Fprintln(w, "No requests yet")
		return err
	}

	t := output.NewTable("METRIC", "LABELS", "VALUE", "SUM")
	for _, s := range samples {
		sum := ""
		if s.Sum != 0 {
			sum = fmt.Sprintf("%.3f", s.Sum)
		}
		t.AddRow(s.Name, s.Labels, fmt.Sprintf("%g", s.Value), sum)
	}
	return t.Render(w)
}

// commandNames returns the names and aliases accepted as a first word.
func commandNames(cmds []*cli.Command) map[string]bool {
	names := map[string]bool{"help": true, "h": true}
	for _, cmd := range cmds {
		for _, n := range cmd.Names() {
			names[n] = true
		}
	}
	return names
}

// commandPaths lists "cmd" and "cmd sub" for completion.
func commandPaths(cmds []*cli.Command) []string {
	var paths []string
	for _, cmd := range cmds {
		if cmd.Hidden || cmd.Name == "shell" {
			continue
		}
		paths = append(paths, cmd.Name)
		for _, sub := range cmd.Subcommands {
			if !sub.Hidden {
				paths = append(paths, cmd.Name+" "+sub.Name)
			}
		}
	}
	return paths
}
