package repl

import (
	"reflect"
	"testing"
)

func TestNewCompleter(t *testing.T) {
	c := NewCompleter("login", "login", " ", "product list")

	want := []string{"exit", "help", "history", "login", "product list", "quit", "stats"}
	if !reflect.DeepEqual(c.commands, want) {
		t.Errorf("commands = %v, want %v", c.commands, want)
	}
}

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter(
		"client", "client show", "client save",
		"product", "product list",
		"whatsapp", "whatsapp connect", "whatsapp disconnect", "whatsapp qr",
		"login", "logout",
	)

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"client", "client", []string{"client", "client save", "client show"}},
		{"client s", "client s", []string{"client save", "client show"}},
		{"collapsed spaces", "client   sh", []string{"client show"}},
		{"log", "log", []string{"login", "logout"}},
		{"whatsapp q", "whatsapp q", []string{"whatsapp qr"}},
		{"builtin", "st", []string{"stats"}},
		{"no match", "backup", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Complete(tt.prefix)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestCompleter_EmptyPrefix(t *testing.T) {
	c := NewCompleter("login")
	if got := c.Complete(""); len(got) != len(c.commands) {
		t.Errorf("Complete(\"\") returned %d items, want %d", len(got), len(c.commands))
	}
}
