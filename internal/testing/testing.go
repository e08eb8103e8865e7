// package testing contains shared test doubles and helpers
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/spotbadge/internal/models"
)

// MockService is a test double for [services.Service].
type MockService struct {
	Track     *models.Track
	Playlists []models.Playlist
	Err       error

	TrackCalls atomic.Int32
}

func (m *MockService) CurrentTrack(ctx context.Context) (*models.Track, error) {
	m.TrackCalls.Add(1)
	return m.Track, m.Err
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return m.Playlists, m.Err
}

// FindPlaylist matches names case-insensitively by prefix.
func (m *MockService) FindPlaylist(ctx context.Context, prefix string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i, p := range m.Playlists {
		if strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(prefix)) {
			return &m.Playlists[i], nil
		}
	}
	return nil, nil
}

func (m *MockService) Name() string { return "mock" }

// MockPhrases is a fixed daylist phrase source.
type MockPhrases struct {
	Phrase string
}

func (m MockPhrases) FindPhrase(context.Context) (string, bool) { return m.Phrase, m.Phrase != "" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper returns a canned response for every request and counts calls.
type MockRoundTripper struct {
	response *http.Response
	err      error
	Calls    atomic.Int32
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Calls.Add(1)
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// MustChdir changes into dir for the rest of the test and restores the working directory afterwards.
func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
