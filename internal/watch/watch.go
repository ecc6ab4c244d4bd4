// Package watch converts pasted booking text into calendar files as it
// appears in an inbox directory or at remote URLs.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"barbercal/internal/config"
	"barbercal/internal/deliver"
	"barbercal/internal/ics"
	appLog "barbercal/internal/log"
	"barbercal/internal/metrics"
	"barbercal/internal/parser"
	"barbercal/internal/source"
)

// inputExt is the only inbox file extension picked up.
const inputExt = ".txt"

// Result describes one processed input.
type Result struct {
	Input   string
	Written []string
}

// Watcher owns the inbox, the out directory and the sweep schedule. Calls to
// Process are serialized, so fsnotify events and cron sweeps never
// interleave writes for the same input.
type Watcher struct {
	cfg     *config.Config
	parser  *parser.Parser
	format  *ics.Formatter
	reader  *source.Reader
	metrics *metrics.Collector

	mu sync.Mutex
}

// New builds a Watcher from cfg. m may be nil.
func New(cfg *config.Config, m *metrics.Collector) (*Watcher, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.New()
	}
	return &Watcher{
		cfg:    cfg,
		parser: parser.New(parser.Options{Location: loc, ShopName: cfg.ShopName}),
		format: &ics.Formatter{
			ProductID: cfg.ProductID,
			UIDDomain: cfg.UIDDomain,
			Repeat:    cfg.Repeat,
		},
		reader:  source.NewReader(cfg.CacheDir),
		metrics: m,
	}, nil
}

// Run sweeps once, then watches the inbox and sweeps on the configured cron
// schedule until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	inbox := w.cfg.Watch.Inbox
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(w.cfg.Watch.Out, 0o755); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(inbox); err != nil {
		return fmt.Errorf("watch: add %s: %w", inbox, err)
	}

	c := cron.New()
	if _, err := c.AddFunc(w.cfg.Watch.Sweep, func() { w.Sweep(ctx) }); err != nil {
		return fmt.Errorf("watch: invalid sweep schedule %q: %w", w.cfg.Watch.Sweep, err)
	}
	c.Start()
	defer func() {
		// Wait for a running sweep to finish.
		<-c.Stop().Done()
	}()

	appLog.Info("watch started",
		"inbox", inbox,
		"out", w.cfg.Watch.Out,
		"sweep", w.cfg.Watch.Sweep,
		"urls", len(w.cfg.Watch.URLs),
	)
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			appLog.Info("watch stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			path, act := w.handleFsEvent(ev)
			switch act {
			case actionProcess:
				if _, err := w.Process(ctx, path); err != nil {
					appLog.Error("watch process failed", err, "input", path)
				}
			case actionForget:
				if err := w.clearOutputs(path); err != nil {
					appLog.Error("watch cleanup failed", err, "input", path)
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			appLog.Error("fsnotify error", err)
		}
	}
}

type action int

const (
	actionNone action = iota
	actionProcess
	actionForget
)

// handleFsEvent decides what an inbox event means: a created or written
// *.txt file is (re)processed, a removed or renamed one loses its outputs.
// Directories, hidden files and other extensions are ignored.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) (string, action) {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || !strings.EqualFold(filepath.Ext(base), inputExt) {
		return "", actionNone
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return ev.Name, actionForget
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return "", actionNone
		}
		return ev.Name, actionProcess
	default:
		return "", actionNone
	}
}

// Sweep processes every inbox file and every configured URL.
func (w *Watcher) Sweep(ctx context.Context) []Result {
	start := time.Now()
	inputs := make([]string, 0)

	entries, err := os.ReadDir(w.cfg.Watch.Inbox)
	if err != nil {
		appLog.Error("watch sweep: read inbox failed", err, "inbox", w.cfg.Watch.Inbox)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), inputExt) {
			continue
		}
		inputs = append(inputs, filepath.Join(w.cfg.Watch.Inbox, name))
	}
	inputs = append(inputs, w.cfg.Watch.URLs...)

	results := make([]Result, 0, len(inputs))
	failures := 0
	for _, in := range inputs {
		if ctx.Err() != nil {
			break
		}
		res, err := w.Process(ctx, in)
		if err != nil {
			failures++
			appLog.Error("watch sweep: input failed", err, "input", in)
			continue
		}
		results = append(results, res)
	}

	appLog.Info("watch sweep completed",
		"inputs", len(inputs),
		"failures", failures,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return results
}

// Process reads one input, parses it and replaces its previous outputs.
// A parse error removes the old outputs too, so the out directory never
// holds appointments the current text no longer contains. A read error
// leaves them in place.
func (w *Watcher) Process(ctx context.Context, input string) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	res := Result{Input: input}

	in, err := w.reader.Read(ctx, input)
	if err != nil {
		return res, err
	}

	start := time.Now()
	appts, perr := w.parser.Parse(in.Text)
	w.metrics.ObserveParse(appts, perr, time.Since(start))

	dir := w.outputDir(input)
	if err := os.RemoveAll(dir); err != nil {
		return res, fmt.Errorf("watch: clear %s: %w", dir, err)
	}
	if perr != nil {
		return res, fmt.Errorf("watch: %s: %s: %w", input, parser.StatusMessage(perr), perr)
	}

	for i, body := range w.format.FormatAll(appts) {
		path, err := deliver.Save(dir, deliver.FileName(w.cfg.FilePrefix, appts[i]), body)
		if err != nil {
			return res, err
		}
		res.Written = append(res.Written, path)
	}
	w.metrics.ObserveExport("file", len(res.Written))

	appLog.Info("watch input converted",
		"input", input,
		"appointments", len(appts),
		"from_cache", in.FromCache,
		"out", dir,
	)
	return res, nil
}

func (w *Watcher) clearOutputs(input string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := w.outputDir(input)
	appLog.Info("watch input removed; clearing outputs", "input", input, "out", dir)
	return os.RemoveAll(dir)
}

// outputDir is the per-input subdirectory of the out directory: the file
// stem for inbox files, a short hash for URLs.
func (w *Watcher) outputDir(input string) string {
	var key string
	if source.IsURL(input) {
		sum := sha256.Sum256([]byte(input))
		key = "url-" + hex.EncodeToString(sum[:6])
	} else {
		base := filepath.Base(input)
		key = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Join(w.cfg.Watch.Out, key)
}
