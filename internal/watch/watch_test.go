package watch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barbercal/internal/config"
)

const twoBookings = "11 Apr 2025\nShop Name\n17:00pm\nHaircut\nwith John\n" +
	"17 May 2025\n13:00pm\n* Shave\nwith Alex\n£19.50\n45 mins\n"

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.CacheDir = filepath.Join(root, "cache")
	cfg.Watch.Inbox = filepath.Join(root, "inbox")
	cfg.Watch.Out = filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(cfg.Watch.Inbox, 0o755))

	w, err := New(cfg, nil)
	require.NoError(t, err)
	return w
}

func writeInbox(t *testing.T, w *Watcher, name, text string) string {
	t.Helper()
	path := filepath.Join(w.cfg.Watch.Inbox, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func listOut(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestProcess_WritesOneFilePerAppointment(t *testing.T) {
	w := newTestWatcher(t)
	path := writeInbox(t, w, "april.txt", twoBookings)

	res, err := w.Process(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Written, 2)

	dir := filepath.Join(w.cfg.Watch.Out, "april")
	assert.ElementsMatch(t, []string{
		"barber_appointment_2025-04-11.ics",
		"barber_appointment_2025-05-17.ics",
	}, listOut(t, dir))

	data, err := os.ReadFile(res.Written[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "DTEND;VALUE=DATE-TIME:20250517T134500\r\n")
}

func TestProcess_ReplacesPreviousOutputs(t *testing.T) {
	w := newTestWatcher(t)
	path := writeInbox(t, w, "paste.txt", twoBookings)

	_, err := w.Process(context.Background(), path)
	require.NoError(t, err)

	writeInbox(t, w, "paste.txt", "2 June 2025\n9:00\n* Trim\nwith Sam\n")
	_, err = w.Process(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"barber_appointment_2025-06-02.ics"}, listOut(t, filepath.Join(w.cfg.Watch.Out, "paste")))
}

func TestProcess_ParseErrorClearsOutputs(t *testing.T) {
	w := newTestWatcher(t)
	path := writeInbox(t, w, "paste.txt", twoBookings)

	_, err := w.Process(context.Background(), path)
	require.NoError(t, err)

	writeInbox(t, w, "paste.txt", "nothing useful here")
	_, err = w.Process(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No valid appointments found")
	assert.Empty(t, listOut(t, filepath.Join(w.cfg.Watch.Out, "paste")))
}

func TestProcess_ReadErrorKeepsOutputs(t *testing.T) {
	w := newTestWatcher(t)
	path := writeInbox(t, w, "paste.txt", twoBookings)

	_, err := w.Process(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = w.Process(context.Background(), path)
	require.Error(t, err)
	assert.Len(t, listOut(t, filepath.Join(w.cfg.Watch.Out, "paste")), 2)
}

func TestSweep_InboxAndURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte("2 June 2025\n9:00\n* Trim\nwith Sam\n"))
	}))
	defer srv.Close()

	w := newTestWatcher(t)
	w.cfg.Watch.URLs = []string{srv.URL + "/bookings"}

	writeInbox(t, w, "a.txt", twoBookings)
	writeInbox(t, w, "notes.md", twoBookings)
	writeInbox(t, w, ".hidden.txt", twoBookings)
	writeInbox(t, w, "broken.txt", "no dates")

	results := w.Sweep(context.Background())
	require.Len(t, results, 2)

	out := listOut(t, w.cfg.Watch.Out)
	assert.Contains(t, out, "a")
	assert.NotContains(t, out, "notes")
	assert.NotContains(t, out, ".hidden")

	urlDir := w.outputDir(srv.URL + "/bookings")
	assert.True(t, strings.HasPrefix(filepath.Base(urlDir), "url-"))
	assert.Equal(t, []string{"barber_appointment_2025-06-02.ics"}, listOut(t, urlDir))
}

func TestHandleFsEvent(t *testing.T) {
	w := newTestWatcher(t)
	file := writeInbox(t, w, "paste.txt", twoBookings)
	dir := filepath.Join(w.cfg.Watch.Inbox, "sub.txt")
	require.NoError(t, os.Mkdir(dir, 0o755))

	tests := []struct {
		name string
		ev   fsnotify.Event
		want action
	}{
		{"create txt", fsnotify.Event{Name: file, Op: fsnotify.Create}, actionProcess},
		{"write txt", fsnotify.Event{Name: file, Op: fsnotify.Write}, actionProcess},
		{"remove txt", fsnotify.Event{Name: filepath.Join(w.cfg.Watch.Inbox, "gone.txt"), Op: fsnotify.Remove}, actionForget},
		{"rename txt", fsnotify.Event{Name: file, Op: fsnotify.Rename}, actionForget},
		{"chmod", fsnotify.Event{Name: file, Op: fsnotify.Chmod}, actionNone},
		{"directory", fsnotify.Event{Name: dir, Op: fsnotify.Create}, actionNone},
		{"hidden", fsnotify.Event{Name: filepath.Join(w.cfg.Watch.Inbox, ".x.txt"), Op: fsnotify.Create}, actionNone},
		{"other ext", fsnotify.Event{Name: filepath.Join(w.cfg.Watch.Inbox, "x.ics"), Op: fsnotify.Create}, actionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := w.handleFsEvent(tt.ev)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_ConvertsNewInboxFile(t *testing.T) {
	w := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	outDir := filepath.Join(w.cfg.Watch.Out, "live")
	require.Eventually(t, func() bool {
		// Rewrite until the watcher is registered and picks it up.
		_ = os.WriteFile(filepath.Join(w.cfg.Watch.Inbox, "live.txt"), []byte(twoBookings), 0o644)
		return len(listOut(t, outDir)) == 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_InvalidTimezone(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Timezone = "Nowhere/Special"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
