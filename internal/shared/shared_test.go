package shared

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetLogLevel(t *testing.T) {
	logger := NewLogger(&bytes.Buffer{})

	t.Run("known level", func(t *testing.T) {
		if !SetLogLevel(logger, " DEBUG ") {
			t.Fatal("expected debug to be accepted")
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}
	})

	t.Run("unknown level is ignored", func(t *testing.T) {
		if SetLogLevel(logger, "loud") {
			t.Fatal("expected unknown level to be rejected")
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("level should be unchanged, got %v", logger.GetLevel())
		}
	})
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	b, _ := GenerateState()
	if len(a) != 32 || a == b {
		t.Errorf("expected distinct 32-char states, got %q and %q", a, b)
	}
	if GenerateID() == GenerateID() {
		t.Error("expected distinct ids")
	}
}

func TestBrowserCommand(t *testing.T) {
	original := getRuntime
	t.Cleanup(func() { getRuntime = original })

	for _, tc := range []struct{ goos, want string }{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "cmd"},
	} {
		t.Run(tc.goos, func(t *testing.T) {
			getRuntime = func() string { return tc.goos }
			cmd, err := browserCommand(context.Background(), "https://example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filepath.Base(cmd.Path) != tc.want && cmd.Args[0] != tc.want {
				t.Errorf("expected %s launcher, got %v", tc.want, cmd.Args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if _, err := browserCommand(context.Background(), "https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
