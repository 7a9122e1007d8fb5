package main

import (
	"testing"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCmd()

	want := map[string]bool{
		"version": false,
		"bot":     false,
		"status":  false,
		"refresh": false,
		"init":    false,
		"config":  false,
	}

	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	root := newRootCmd()
	flag := root.PersistentFlags().Lookup("config")
	if flag == nil {
		t.Fatal("--config flag not registered")
	}
	if flag.DefValue != "configs/mediawatch.yaml" {
		t.Errorf("--config default = %q, want %q", flag.DefValue, "configs/mediawatch.yaml")
	}
	if flag.Shorthand != "c" {
		t.Errorf("--config shorthand = %q, want %q", flag.Shorthand, "c")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("Use = %q, want %q", cmd.Use, "version")
	}
}

func TestBotCommand_IntervalFlags(t *testing.T) {
	cmd := newBotCmd()
	for flag, def := range map[string]string{
		"dashboard-interval": "1m0s",
		"presence-interval":  "5m0s",
	} {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("--%s flag not registered", flag)
			continue
		}
		if f.DefValue != def {
			t.Errorf("--%s default = %q, want %q", flag, f.DefValue, def)
		}
	}
}

func TestConfigCommand_HasValidateSubcommand(t *testing.T) {
	cmd := newConfigCmd()
	found := false
	for _, sub := range cmd.Commands() {
		if sub.Name() == "validate" {
			found = true
			break
		}
	}
	if !found {
		t.Error("config command missing 'validate' subcommand")
	}
}
