package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/spotbadge/internal/models"
	"github.com/desertthunder/spotbadge/internal/shared"
	th "github.com/desertthunder/spotbadge/internal/testing"
)

var playlists = []models.Playlist{
	{
		ID:          "pl1",
		Name:        "daylist • sad girl starbucks",
		Description: "Made for you, updated through the day",
		TrackCount:  50,
		URL:         "https://open.spotify.com/playlist/pl1",
	},
	{
		ID:         "pl2",
		Name:       "Road Trip, 2024",
		TrackCount: 120,
		Public:     true,
	},
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(playlists)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("expected valid CSV, got %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "ID,Name,Tracks,Public,URL,Description" {
			t.Errorf("CSV missing headers, got: %v", records[0])
		}
		if records[2][1] != "Road Trip, 2024" {
			t.Errorf("expected comma to survive quoting, got %q", records[2][1])
		}
		if records[2][3] != "true" || records[1][3] != "false" {
			t.Errorf("expected public column, got %q and %q", records[1][3], records[2][3])
		}
	})

	t.Run("ExportToCSV with no playlists", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 1 {
			t.Errorf("expected header only, got %q", string(data))
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(playlists)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Playlists",
			"**Count**: 2",
			"1. [daylist • sad girl starbucks](https://open.spotify.com/playlist/pl1) (50 tracks, private)",
			"   > Made for you",
			"2. Road Trip, 2024 (120 tracks, public)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(playlists)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Playlists: 2\n\n") {
			t.Errorf("text missing count, got: %s", output)
		}
		if !strings.Contains(output, "2. Road Trip, 2024 [120 tracks, Public]") {
			t.Errorf("text missing second playlist, got: %s", output)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"csv", CSV, false},
		{"CSV", CSV, false},
		{"md", Markdown, false},
		{"markdown", Markdown, false},
		{"txt", Text, false},
		{"", Text, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Fatalf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	t.Run("writes the selected format", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, CSV, playlists); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(buf.String(), "ID,Name") {
			t.Errorf("expected CSV output, got %q", buf.String())
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		err := Write(&bytes.Buffer{}, Format("xml"), playlists)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("reports write failures", func(t *testing.T) {
		err := Write(&th.FWriter{}, Text, playlists)
		if err == nil || !strings.Contains(err.Error(), "failed to write export") {
			t.Fatalf("expected write error, got %v", err)
		}
	})
}
