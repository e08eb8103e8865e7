package daylist

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotbadge/internal/shared"
)

// ArtifactName is the member written by [WriteArtifact].
const ArtifactName = "daylist.txt"

const (
	maxArtifactBytes = 1 << 20
	maxPhraseBytes   = 64 << 10
)

// ArtifactFetcher downloads the zip produced by the scheduled scrape job.
type ArtifactFetcher struct {
	url    string
	client *http.Client
	logger *log.Logger
}

// NewArtifactFetcher returns a fetcher for url. timeout bounds the whole download.
func NewArtifactFetcher(url string, timeout time.Duration, logger *log.Logger) *ArtifactFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ArtifactFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch downloads the archive and returns the trimmed phrase it contains.
func (a *ArtifactFetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: artifact status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read artifact: %w", err)
	}
	if len(data) > maxArtifactBytes {
		return "", fmt.Errorf("%w: archive larger than %d bytes", shared.ErrArtifactInvalid, maxArtifactBytes)
	}

	a.logger.Debug("downloaded daylist artifact", "bytes", len(data))
	return ReadArtifact(data)
}

// ReadArtifact extracts the phrase from the first .txt member of a zip archive.
func ReadArtifact(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrArtifactInvalid, err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".txt") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: open %s: %v", shared.ErrArtifactInvalid, f.Name, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxPhraseBytes))
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: read %s: %v", shared.ErrArtifactInvalid, f.Name, err)
		}

		if !utf8.Valid(content) {
			return "", fmt.Errorf("%w: %s is not UTF-8", shared.ErrArtifactInvalid, f.Name)
		}
		phrase := strings.TrimSpace(string(content))
		if phrase == "" {
			return "", fmt.Errorf("%w: %s is empty", shared.ErrArtifactInvalid, f.Name)
		}
		return phrase, nil
	}

	return "", fmt.Errorf("%w: no .txt member", shared.ErrArtifactInvalid)
}

// WriteArtifact writes a zip archive holding phrase as [ArtifactName].
func WriteArtifact(w io.Writer, phrase string) error {
	zw := zip.NewWriter(w)
	f, err := zw.Create(ArtifactName)
	if err != nil {
		return fmt.Errorf("failed to create archive member: %w", err)
	}
	if _, err := io.WriteString(f, strings.TrimSpace(phrase)+"\n"); err != nil {
		return fmt.Errorf("failed to write archive member: %w", err)
	}
	return zw.Close()
}
