package tui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barbercal/internal/ics"
	"barbercal/internal/metrics"
	"barbercal/internal/parser"
)

const twoBookings = "11 Apr 2025\nShop Name\n17:00pm\nHaircut\nwith John\n" +
	"17 May 2025\n13:00pm\n* Shave\nwith Alex\n£19.50\n45 mins"

// fakeOpener records the paths it is asked to open.
type fakeOpener struct {
	paths []string
	err   error
}

func (f *fakeOpener) Open(path string) error {
	f.paths = append(f.paths, path)
	return f.err
}

func newTestApp(t *testing.T, mutate func(*Deps)) *App {
	t.Helper()
	deps := Deps{
		Parser: parser.New(parser.Options{Location: time.UTC}),
		Format: &ics.Formatter{
			Now: func() time.Time { return time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC) },
		},
		Opener:    &fakeOpener{},
		Copy:      func(string) error { return nil },
		OutputDir: t.TempDir(),
		OpenDir:   t.TempDir(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	app, err := NewApp(deps)
	require.NoError(t, err)
	return app
}

// send delivers msg and runs the returned command synchronously, feeding its
// message back into the app.
func send(t *testing.T, a *App, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := a.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	a.Update(out)
	return out
}

func parsed(t *testing.T, a *App, text string) {
	t.Helper()
	a.SetInput(text)
	send(t, a, tea.KeyMsg{Type: tea.KeyCtrlP})
}

func TestNewApp_RequiresParser(t *testing.T) {
	_, err := NewApp(Deps{})
	assert.Error(t, err)
}

func TestNewApp_Defaults(t *testing.T) {
	app, err := NewApp(Deps{Parser: parser.New(parser.Options{})})
	require.NoError(t, err)

	assert.NotNil(t, app.deps.Format)
	assert.NotNil(t, app.deps.Opener)
	assert.NotNil(t, app.deps.Copy)
	assert.Equal(t, filepath.Join(os.TempDir(), "barbercal"), app.deps.OpenDir)
	assert.True(t, app.InputFocused())
}

func TestParse_Success(t *testing.T) {
	m := metrics.New()
	app := newTestApp(t, func(d *Deps) { d.Metrics = m })
	app.SetInput(twoBookings)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	require.NotNil(t, cmd)
	assert.Contains(t, app.View(), "Processing...")

	// A second request while busy is ignored.
	_, again := app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Nil(t, again)

	app.Update(cmd())
	require.Len(t, app.Results(), 2)
	assert.Equal(t, "Shop Name - Haircut with John", app.Results()[0].Title)
	assert.Empty(t, app.Message())
	assert.False(t, app.InputFocused())
	assert.NotContains(t, app.View(), "Processing...")
}

func TestParse_ErrorClearsResults(t *testing.T) {
	app := newTestApp(t, nil)
	parsed(t, app, twoBookings)
	require.Len(t, app.Results(), 2)

	parsed(t, app, "nothing useful here")
	assert.Empty(t, app.Results())
	assert.Equal(t, parser.MsgNoRecords, app.Message())
	assert.True(t, app.InputFocused())
	assert.Contains(t, app.View(), parser.MsgNoRecords)
}

func TestParse_EmptyInput(t *testing.T) {
	app := newTestApp(t, nil)
	parsed(t, app, "   ")
	assert.Equal(t, parser.MsgEmptyInput, app.Message())
}

func TestParse_ReplacesResults(t *testing.T) {
	app := newTestApp(t, nil)
	parsed(t, app, twoBookings)
	parsed(t, app, "2 June 2025\n9:00\n* Trim\nwith Sam")

	require.Len(t, app.Results(), 1)
	assert.Equal(t, "Trim", app.Results()[0].Service)
}

func TestNavigation(t *testing.T) {
	app := newTestApp(t, nil)
	parsed(t, app, twoBookings)
	require.False(t, app.InputFocused())

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, app.Selected())
	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, app.Selected())
	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, app.Selected())
	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, app.Selected())
}

func TestFocusToggle(t *testing.T) {
	app := newTestApp(t, nil)
	parsed(t, app, twoBookings)

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, app.InputFocused())
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, app.InputFocused())

	// Typing while the list has focus returns to the paste.
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.True(t, app.InputFocused())
}

func TestSaveSelected(t *testing.T) {
	app := newTestApp(t, nil)
	parsed(t, app, twoBookings)
	app.Update(tea.KeyMsg{Type: tea.KeyDown})

	msg := send(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	saved, ok := msg.(savedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)
	assert.Equal(t, filepath.Join(app.deps.OutputDir, "barber_appointment_2025-05-17.ics"), saved.path)

	data, err := os.ReadFile(saved.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DTSTART;VALUE=DATE-TIME:20250517T130000\r\n")
	assert.Contains(t, app.View(), "Saved ")

	// Saving again never overwrites.
	msg = send(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, filepath.Join(app.deps.OutputDir, "barber_appointment_2025-05-17_2.ics"), msg.(savedMsg).path)
}

func TestSaveSelected_NoResults(t *testing.T) {
	app := newTestApp(t, nil)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
}

func TestOpenSelected(t *testing.T) {
	opener := &fakeOpener{}
	m := metrics.New()
	app := newTestApp(t, func(d *Deps) {
		d.Opener = opener
		d.Metrics = m
	})
	parsed(t, app, twoBookings)

	msg := send(t, app, tea.KeyMsg{Type: tea.KeyCtrlO})
	opened, ok := msg.(openedMsg)
	require.True(t, ok)
	require.NoError(t, opened.err)
	require.Equal(t, []string{opened.path}, opener.paths)
	assert.Equal(t, app.deps.OpenDir, filepath.Dir(opened.path))
	assert.FileExists(t, opened.path)
}

func TestOpenSelected_Failure(t *testing.T) {
	app := newTestApp(t, func(d *Deps) { d.Opener = &fakeOpener{err: errors.New("no launcher")} })
	parsed(t, app, twoBookings)

	send(t, app, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Contains(t, app.Message(), "no launcher")
	assert.Len(t, app.Results(), 2)
}

func TestCopySelected(t *testing.T) {
	var copied string
	app := newTestApp(t, func(d *Deps) {
		d.Copy = func(s string) error {
			copied = s
			return nil
		}
	})
	parsed(t, app, twoBookings)

	send(t, app, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Contains(t, copied, "BEGIN:VCALENDAR\r\n")
	assert.Contains(t, copied, "SUMMARY:Shop Name - Haircut with John\r\n")
	assert.Contains(t, app.View(), "Copied to clipboard")
}

func TestQuit(t *testing.T) {
	app := newTestApp(t, nil)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_Cards(t *testing.T) {
	app := newTestApp(t, nil)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	parsed(t, app, twoBookings)

	view := app.View()
	assert.Contains(t, view, "Friday, 11 April 2025")
	assert.Contains(t, view, "Time: 17:00")
	assert.Contains(t, view, "Format 1")
	assert.Contains(t, view, "Saturday, 17 May 2025")
	assert.Contains(t, view, "Format 2")
}
