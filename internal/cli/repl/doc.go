// Package repl implements the interactive shell of stockvoice-cli.
//
// Each line is split into arguments and handed to an executor that runs
// the regular subcommands in-process, so the session state seen by the
// prompt is always the one the last command left behind:
//
//   - repl.go: read loop, built-ins (exit, quit, stats, history) and config reload
//   - split.go: shell-style word splitting
//   - completer.go: command-name completion, triggered by a trailing "?"
//   - history.go: persistent command history
package repl
