// package formatter renders the account's playlist list as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/spotbadge/internal/models"
	"github.com/desertthunder/spotbadge/internal/shared"
)

// Format names an export format accepted by [Write].
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// ParseFormat accepts a format name case-insensitively; "md" and "txt" are aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt", "":
		return Text, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

// ExportToCSV converts playlists to CSV with columns: ID, Name, Tracks, Public, URL, Description
func ExportToCSV(playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Tracks", "Public", "URL", "Description"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range playlists {
		record := []string{
			p.ID,
			p.Name,
			strconv.Itoa(p.TrackCount),
			strconv.FormatBool(p.Public),
			p.URL,
			p.Description,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders playlists as a numbered Markdown list under a heading.
func ExportToMarkdown(playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Playlists\n\n**Count**: %d\n\n", len(playlists))
	for i, p := range playlists {
		name := p.Name
		if p.URL != "" {
			name = fmt.Sprintf("[%s](%s)", p.Name, p.URL)
		}
		fmt.Fprintf(&buf, "%d. %s (%d tracks, %s)\n", i+1, name, p.TrackCount, strings.ToLower(visibility(p.Public)))
		if p.Description != "" {
			fmt.Fprintf(&buf, "   > %s\n", p.Description)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts playlists to one line each.
func ExportToText(playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlists: %d\n\n", len(playlists))
	for i, p := range playlists {
		fmt.Fprintf(&buf, "%d. %s [%d tracks, %s]\n", i+1, p.Name, p.TrackCount, visibility(p.Public))
	}

	return buf.Bytes(), nil
}

// Write renders playlists in format to w.
func Write(w io.Writer, format Format, playlists []models.Playlist) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case CSV:
		data, err = ExportToCSV(playlists)
	case Markdown:
		data, err = ExportToMarkdown(playlists)
	case Text:
		data, err = ExportToText(playlists)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
