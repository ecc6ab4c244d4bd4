// Package source acquires pasted booking text from files, stdin, the system
// clipboard or a remote URL.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	appLog "barbercal/internal/log"
)

// Input names understood by Reader.Read besides file paths and URLs.
const (
	Stdin     = "-"
	Clipboard = "clipboard:"
)

// Input is text read from one place.
type Input struct {
	// Name identifies where the text came from (path, URL, "stdin", "clipboard").
	Name      string
	Text      string
	FromCache bool
}

// Reader dispatches an input name to the matching backend.
type Reader struct {
	Fetcher *Fetcher

	// Stdin is read for Stdin; nil means os.Stdin.
	Stdin io.Reader

	// ReadClipboard returns the clipboard contents; nil means the system
	// clipboard.
	ReadClipboard func() (string, error)
}

// NewReader returns a Reader whose URL fetches are cached under cacheDir.
func NewReader(cacheDir string) *Reader {
	return &Reader{Fetcher: NewFetcher(cacheDir)}
}

// IsURL reports whether name is fetched over HTTP(S).
func IsURL(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Read loads the text for name.
func (r *Reader) Read(ctx context.Context, name string) (Input, error) {
	switch {
	case name == "":
		return Input{}, errors.New("source: no input given")

	case name == Stdin:
		in := r.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return Input{}, fmt.Errorf("source: read stdin: %w", err)
		}
		return Input{Name: "stdin", Text: string(data)}, nil

	case name == Clipboard:
		read := r.ReadClipboard
		if read == nil {
			read = clipboard.ReadAll
		}
		text, err := read()
		if err != nil {
			return Input{}, fmt.Errorf("source: read clipboard: %w", err)
		}
		return Input{Name: "clipboard", Text: text}, nil

	case IsURL(name):
		f := r.Fetcher
		if f == nil {
			f = NewFetcher("")
		}
		res, err := f.Fetch(ctx, name)
		if err != nil {
			return Input{}, fmt.Errorf("source: %w", err)
		}
		return Input{Name: name, Text: res.Text, FromCache: res.FromCache}, nil

	default:
		data, err := os.ReadFile(name)
		if err != nil {
			return Input{}, fmt.Errorf("source: %w", err)
		}
		appLog.Debug("source file read", "path", name, "bytes", len(data))
		return Input{Name: name, Text: string(data)}, nil
	}
}
