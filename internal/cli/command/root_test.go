package command

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stockvoice-go/internal/cli/api"
	"github.com/yndnr/stockvoice-go/internal/cli/gateway"
)

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}
	if app.Name != "stockvoice-cli" {
		t.Errorf("Name = %q, want %q", app.Name, "stockvoice-cli")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"register", "login", "logout", "whoami", "client", "product", "whatsapp", "config", "shell"} {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, f := range app.Flags {
		flagNames[f.Names()[0]] = true
	}
	for _, name := range []string{"config", "server", "timeout", "output", "wide", "verbose"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

// testContext builds a root context with the given global flags parsed.
func testContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	app := &cli.App{Name: "test", Flags: globalFlags()}

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatal(err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(app, set, nil)
}

func TestFlagOverrides(t *testing.T) {
	t.Run("none set", func(t *testing.T) {
		got := flagOverrides(testContext(t))
		if len(got) != 0 {
			t.Errorf("overrides = %v, want empty", got)
		}
	})

	t.Run("all set", func(t *testing.T) {
		c := testContext(t, "--server", "https://api.example.com", "--timeout", "3s", "--output", "json", "--wide", "--verbose")
		got := flagOverrides(c)

		server := got["server"].(map[string]any)
		if server["address"] != "https://api.example.com" {
			t.Errorf("server.address = %v", server["address"])
		}
		if server["timeout"] != (3 * time.Second).String() {
			t.Errorf("server.timeout = %v", server["timeout"])
		}
		out := got["output"].(map[string]any)
		if out["format"] != "json" || out["wide"] != true {
			t.Errorf("output = %v", out)
		}
		if got["log"].(map[string]any)["level"] != "debug" {
			t.Errorf("log = %v", got["log"])
		}
	})
}

func TestRun_BadConfigFile(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, env.configPath, "server: [not, a, map\n")

	_, _, err := env.run("", "whoami")
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %v, want load config failure", err)
	}
}

func TestRun_InvalidConfigBlocksRequests(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run("", "--timeout", "0s", "product", "list")
	if err == nil || !strings.Contains(err.Error(), "server.timeout") {
		t.Errorf("error = %v, want invalid configuration", err)
	}
	if calls := env.server.callLog(); len(calls) != 0 {
		t.Errorf("calls = %v, want none", calls)
	}
}

func TestRun_UnknownOutputFormat(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	_, _, err := env.run("", "-o", "xml", "whoami")
	if err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantHint string
	}{
		{
			name:     "unauthorized with backend message",
			err:      fmt.Errorf("list products: %w", &gateway.Error{Kind: gateway.KindUnauthorized, Status: 401, Message: "Token inválido"}),
			wantMsg:  "error: Token inválido\n",
			wantHint: "stockvoice-cli login",
		},
		{
			name:     "not authenticated",
			err:      api.ErrNotAuthenticated,
			wantMsg:  "error: not logged in\n",
			wantHint: "stockvoice-cli login",
		},
		{
			name:     "transport",
			err:      &gateway.Error{Kind: gateway.KindTransport, Cause: errors.New("connection refused")},
			wantMsg:  "error: could not reach the server\n",
			wantHint: "server.address",
		},
		{
			name:     "timeout",
			err:      &gateway.Error{Kind: gateway.KindTimeout},
			wantMsg:  "error: the server did not answer in time\n",
			wantHint: "server.address",
		},
		{
			name:    "rejected",
			err:     &gateway.Error{Kind: gateway.KindRejected, Status: 500},
			wantMsg: "error: request failed with status 500\n",
		},
		{
			name:    "plain",
			err:     errors.New("boom"),
			wantMsg: "error: boom\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ReportError(&buf, tt.err)
			got := buf.String()

			if !strings.HasPrefix(got, tt.wantMsg) {
				t.Errorf("output = %q, want prefix %q", got, tt.wantMsg)
			}
			if tt.wantHint == "" {
				if strings.Contains(got, "hint:") {
					t.Errorf("output = %q, want no hint", got)
				}
				return
			}
			if !strings.Contains(got, tt.wantHint) {
				t.Errorf("output = %q, want hint containing %q", got, tt.wantHint)
			}
		})
	}
}

func TestCommandPaths(t *testing.T) {
	paths := commandPaths(App().Commands)
	joined := "|" + strings.Join(paths, "|") + "|"

	for _, want := range []string{"|client show|", "|whatsapp qr|", "|product list|", "|login|"} {
		if !strings.Contains(joined, want) {
			t.Errorf("paths = %v, missing %q", paths, want)
		}
	}
	if strings.Contains(joined, "|shell|") {
		t.Errorf("paths = %v, shell should not complete inside the shell", paths)
	}
}
