package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/spotbadge/internal/badge"
	"github.com/desertthunder/spotbadge/internal/daylist"
	"github.com/desertthunder/spotbadge/internal/shared"
	"github.com/desertthunder/spotbadge/internal/ui"
	"github.com/urfave/cli/v3"
)

// DaylistResolve runs the fallback chain once and prints the phrase and badge caption.
func (r *Runner) DaylistResolve(ctx context.Context, cmd *cli.Command) error {
	resolver, err := r.daylistResolver(ctx)
	if err != nil {
		return err
	}
	loc, err := r.config.Daylist.Location()
	if err != nil {
		return err
	}

	phrase, ok := resolver.Phrase(ctx)
	caption := badge.Caption(r.now().In(loc), phrase)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"phrase":  phrase,
			"found":   ok,
			"bucket":  daylist.BucketKey(r.now(), loc),
			"caption": caption,
		}, true)
	}

	if !ok {
		return r.writeLines(ui.Styles.Warn("No daylist phrase found, badge falls back to:"), caption)
	}
	return r.writeLines(ui.Styles.OK(phrase), caption)
}

// DaylistScrape runs a live scrape and writes the phrase (and optionally a zip artifact) to disk.
// It fails when no phrase was found.
func (r *Runner) DaylistScrape(ctx context.Context, cmd *cli.Command) error {
	source := r.scraper
	if source == nil {
		sc := r.config.Scraper
		if cmd.Bool("headed") {
			sc.Headless = false
		}
		source = r.newScraper(sc)
	}

	r.logger.Info("starting daylist scrape")
	phrase, ok := source.FindPhrase(ctx)
	if !ok {
		return fmt.Errorf("%w: no daylist phrase found", shared.ErrServiceUnavailable)
	}

	output := cmd.String("output")
	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(output, []byte(phrase), 0o644); err != nil {
			return fmt.Errorf("failed to write phrase: %w", err)
		}
		r.logger.Info("wrote daylist phrase", "path", output)
	}

	if zipPath := cmd.String("zip"); zipPath != "" {
		if err := writeArtifactFile(zipPath, phrase); err != nil {
			return err
		}
		r.logger.Info("wrote daylist artifact", "path", zipPath)
	}

	return r.writeLines(ui.Styles.OK(phrase))
}

func writeArtifactFile(path, phrase string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	if err := daylist.WriteArtifact(f, phrase); err != nil {
		f.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return f.Close()
}
