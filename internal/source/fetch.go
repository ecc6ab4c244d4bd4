package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "barbercal/internal/log"
)

// DefaultMaxPasteBytes caps a remote paste. A booking history is a few KB of
// text; anything near this size is not a paste.
const DefaultMaxPasteBytes = 4 << 20

// ErrPasteTooLarge is returned when a remote paste exceeds Fetcher.MaxBytes.
var ErrPasteTooLarge = errors.New("remote paste too large")

// RemotePaste is booking text pulled from a URL.
type RemotePaste struct {
	URL  string
	Text string
	// FromCache is set when the server said "not modified" or could not be
	// reached and the last good copy was used instead.
	FromCache bool
}

// validators are the HTTP revalidation headers saved next to a cached paste.
type validators struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// Fetcher downloads pastes published at a URL, such as a shared note or a
// gist, revalidating against the last good copy kept in CacheDir.
type Fetcher struct {
	Client   *http.Client
	CacheDir string
	// MaxBytes caps the body; zero means DefaultMaxPasteBytes.
	MaxBytes int64
}

// NewFetcher returns a Fetcher keeping its copies in cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "cache")
	}
	return &Fetcher{
		Client:   &http.Client{Timeout: 15 * time.Second},
		CacheDir: cacheDir,
		MaxBytes: DefaultMaxPasteBytes,
	}
}

// Fetch downloads the paste at url. A 304, a transport error or an error
// status is answered from the cached copy when one exists. An oversized body
// is an error and leaves the cache untouched.
func (f *Fetcher) Fetch(ctx context.Context, url string) (RemotePaste, error) {
	if url == "" {
		return RemotePaste{}, errors.New("source URL is empty")
	}
	if err := os.MkdirAll(f.CacheDir, 0o700); err != nil {
		return RemotePaste{}, err
	}

	stem := f.cacheStem(url)
	cached, hasCached := f.readCached(stem)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RemotePaste{}, err
	}
	if hasCached {
		if v, err := f.readValidators(stem); err == nil {
			if v.ETag != "" {
				req.Header.Set("If-None-Match", v.ETag)
			}
			if v.LastModified != "" {
				req.Header.Set("If-Modified-Since", v.LastModified)
			}
		}
	}

	appLog.Debug("remote paste request", "url", redactURL(url))

	stale := RemotePaste{URL: url, Text: cached, FromCache: true}

	resp, err := f.client().Do(req)
	if err != nil {
		if hasCached {
			appLog.Warn("remote paste unreachable; using last good copy", "url", redactURL(url), "err", err)
			return stale, nil
		}
		return RemotePaste{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if !hasCached {
			return RemotePaste{}, fmt.Errorf("fetch %s: 304 Not Modified with nothing cached", redactURL(url))
		}
		appLog.Debug("remote paste unchanged", "url", redactURL(url))
		return stale, nil

	case resp.StatusCode != http.StatusOK:
		if hasCached {
			appLog.Warn("remote paste refused; using last good copy", "url", redactURL(url), "status", resp.StatusCode)
			return stale, nil
		}
		return RemotePaste{}, fmt.Errorf("fetch %s: %s", redactURL(url), resp.Status)
	}

	text, err := f.readBody(resp.Body)
	if err != nil {
		return RemotePaste{}, fmt.Errorf("fetch %s: %w", redactURL(url), err)
	}

	v := validators{
		URL:          url,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	if err := f.writeCached(stem, v, text); err != nil {
		appLog.Error("remote paste cache write failed", err, "url", redactURL(url))
	}

	appLog.Info("remote paste downloaded", "url", redactURL(url), "bytes", len(text))
	return RemotePaste{URL: url, Text: text}, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

// readBody reads at most MaxBytes. One extra byte is requested so an
// oversized paste is reported rather than cut short.
func (f *Fetcher) readBody(r io.Reader) (string, error) {
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxPasteBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: over %d bytes", ErrPasteTooLarge, limit)
	}
	return string(data), nil
}

// cacheStem names the cache files for url: <stem>.txt holds the paste and
// <stem>.json its validators.
func (f *Fetcher) cacheStem(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.CacheDir, "paste-"+hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) readCached(stem string) (string, bool) {
	data, err := os.ReadFile(stem + ".txt")
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (f *Fetcher) readValidators(stem string) (validators, error) {
	var v validators
	data, err := os.ReadFile(stem + ".json")
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(data, &v)
	return v, err
}

// writeCached stores the paste before its validators, so validators on disk
// always describe a paste that is there.
func (f *Fetcher) writeCached(stem string, v validators, text string) error {
	if err := os.WriteFile(stem+".txt", []byte(text), 0o600); err != nil {
		return err
	}
	v.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(stem+".json", data, 0o600)
}

// redactURL keeps only the scheme and host of u for logs; paste links often
// carry a secret in the path or query.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i == -1 {
		return "url://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
