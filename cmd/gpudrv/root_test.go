// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"
)

//nolint:paralleltest // mutates the package-level version variables
func TestGetVersionString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	defer func() { Version, Commit, BuildDate = origVersion, origCommit, origDate }()

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}

	Version, Commit, BuildDate = "v1.2.0", "abc1234", "2026-01-01"
	want := "v1.2.0 (commit: abc1234, built: 2026-01-01)"
	if got := getVersionString(); got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand(NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}))
	want := []string{"list", "install", "use", "reset", "delete", "inspect", "status", "config"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("missing --verbose flag")
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestIsSystemRef(t *testing.T) {
	t.Parallel()

	for ref, want := range map[string]bool{
		"system":        true,
		"SYSTEM":        true,
		"System Driver": true,
		"turnip":        false,
		"":              false,
	} {
		if got := isSystemRef(ref); got != want {
			t.Errorf("isSystemRef(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestRootCommand_Help(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	root := NewRootCommand(NewApp(Dependencies{Stdout: &out, Stderr: &out}))
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("--help: %v", err)
	}
	if !strings.Contains(out.String(), "driver") {
		t.Errorf("help output = %q", out.String())
	}
}
