package ui

import (
	"strings"
	"testing"
)

func TestPalette(t *testing.T) {
	p := NewPalette("#111111", "#222222", "#333333", "#444444", "#555555")

	tests := []struct {
		name     string
		got      string
		contains string
	}{
		{"title", p.Title("daylist"), "daylist"},
		{"ok", p.OK("saved"), "✓ saved"},
		{"err", p.Err("failed"), "✗ failed"},
		{"warn", p.Warn("stale"), "⚠ stale"},
		{"help", p.Help("run setup"), "run setup"},
		{"field", p.Field("Tracks", "12"), "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.got, tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, tt.got)
			}
		})
	}
}
