package scraper

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/spotbadge/internal/shared"
)

// CookieDomain is applied to cookies imported from a cURL command.
const CookieDomain = ".spotify.com"

// Cookie mirrors the browser's cookie shape so saved files round-trip through the driver.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Cookie sources reported by [CookieJar.Load].
const (
	SourceNone = ""
	SourceEnv  = "env"
	SourceFile = "file"
)

// CookieJar persists browser session cookies between runs.
type CookieJar struct {
	path string
	blob string
}

// NewCookieJar returns a jar backed by path. A non-empty blob (JSON array of cookies) takes
// precedence over the file when loading.
func NewCookieJar(path, blob string) *CookieJar {
	return &CookieJar{path: path, blob: strings.TrimSpace(blob)}
}

// Path returns the backing file.
func (j *CookieJar) Path() string { return j.path }

// Load returns the stored cookies and where they came from.
// A missing file is not an error.
func (j *CookieJar) Load() ([]Cookie, string, error) {
	if j.blob != "" {
		cookies, err := decodeCookies([]byte(j.blob))
		if err != nil {
			return nil, SourceNone, fmt.Errorf("cookie blob: %w", err)
		}
		return cookies, SourceEnv, nil
	}

	if j.path == "" {
		return nil, SourceNone, nil
	}

	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, SourceNone, nil
	} else if err != nil {
		return nil, SourceNone, err
	}

	cookies, err := decodeCookies(data)
	if err != nil {
		return nil, SourceNone, fmt.Errorf("cookie file %s: %w", j.path, err)
	}
	return cookies, SourceFile, nil
}

// Save replaces the cookie file. The write goes through a temporary file in the same
// directory so readers never observe a partial file.
func (j *CookieJar) Save(cookies []Cookie) error {
	if j.path == "" {
		return fmt.Errorf("%w: cookie file path", shared.ErrMissingConfig)
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".cookies-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), j.path)
}

// CookiesFromCurl converts the cookies of a copied request into session cookies for [CookieDomain].
func CookiesFromCurl(req *shared.CurlRequest) []Cookie {
	pairs := req.CookiePairs()
	cookies := make([]Cookie, 0, len(pairs))
	for _, p := range pairs {
		cookies = append(cookies, Cookie{
			Name:    p.Name,
			Value:   p.Value,
			Domain:  CookieDomain,
			Path:    "/",
			Expires: -1,
			Secure:  true,
		})
	}
	return cookies
}

func decodeCookies(data []byte) ([]Cookie, error) {
	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return cookies, nil
}
