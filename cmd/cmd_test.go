package cmd

import (
	"log/slog"
	"testing"

	"github.com/quillnote/quill/internal/config"
)

func TestRootCommandWiring(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"chat":      false,
		"index":     false,
		"tags":      false,
		"transform": false,
		"version":   false,
	}
	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	if got := logLevel(&config.Config{Debug: true}); got != slog.LevelDebug {
		t.Errorf("logLevel(debug) = %v", got)
	}
	if got := logLevel(&config.Config{}); got != slog.LevelInfo {
		t.Errorf("logLevel(default) = %v", got)
	}
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	if got := firstLine("one\ntwo"); got != "one" {
		t.Errorf("firstLine() = %q", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("firstLine() = %q", got)
	}
}
