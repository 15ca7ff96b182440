package main

import (
	"context"
	"errors"
	"testing"

	cli "github.com/urfave/cli/v3"
)

func findCommand(app *cli.Command, name string) *cli.Command {
	for _, c := range app.Commands {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func hasFlag(cmd *cli.Command, name string) bool {
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return true
			}
		}
	}
	return false
}

func TestNewApp(t *testing.T) {
	app := newApp()
	if app.Before == nil || app.After == nil {
		t.Fatal("lifecycle hooks are not set")
	}
	for _, name := range []string{"config", "debug"} {
		if !hasFlag(app, name) {
			t.Errorf("global flag %s missing", name)
		}
	}

	tests := []struct {
		command string
		flags   []string
	}{
		{"convert", []string{"header", "footer", "svg", "nodirs", "nd", "overwrite", "ow", "force-zip-cp"}},
		{"dumpconfig", []string{"default"}},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cmd := findCommand(app, tt.command)
			if cmd == nil {
				t.Fatalf("command %s missing", tt.command)
			}
			if cmd.Action == nil {
				t.Error("command has no action")
			}
			for _, f := range tt.flags {
				if !hasFlag(cmd, f) {
					t.Errorf("flag %s missing", f)
				}
			}
		})
	}
}

func TestOnUsageError(t *testing.T) {
	want := errors.New("bad flag")
	if err := onUsageError(context.Background(), nil, want, false); !errors.Is(err, want) {
		t.Errorf("onUsageError() = %v", err)
	}
}
