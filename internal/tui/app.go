// Package tui is the interactive terminal front end: a paste area, a parse
// action and a list of result cards with save, open and copy actions.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"barbercal/internal/deliver"
	"barbercal/internal/ics"
	appLog "barbercal/internal/log"
	"barbercal/internal/metrics"
	"barbercal/internal/model"
	"barbercal/internal/session"
)

// Opener hands a saved file to another application. deliver.Opener
// satisfies it.
type Opener interface {
	Open(path string) error
}

// Deps are the collaborators the App drives.
type Deps struct {
	Parser session.Parser
	Format *ics.Formatter

	// Opener defaults to deliver.Opener{}.
	Opener Opener
	// Copy defaults to deliver.CopyToClipboard.
	Copy func(content string) error

	// OutputDir receives files saved with ctrl+s.
	OutputDir string
	// OpenDir receives files written for ctrl+o. Empty means a barbercal
	// directory under os.TempDir().
	OpenDir string
	// Prefix is the file name stem.
	Prefix string

	// Metrics may be nil.
	Metrics *metrics.Collector
}

// Messages produced by the App's commands.
type (
	parsedMsg struct {
		appts []model.Appointment
		err   error
	}
	savedMsg struct {
		path string
		err  error
	}
	openedMsg struct {
		path string
		err  error
	}
	copiedMsg struct {
		err error
	}
)

// App is the root bubbletea model.
type App struct {
	styles *Styles
	keymap *KeyMap
	deps   Deps

	input      textarea.Model
	focusInput bool

	state    session.State
	selected int
	notice   string

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the model. Only Parser is required.
func NewApp(deps Deps) (*App, error) {
	if deps.Parser == nil {
		return nil, fmt.Errorf("tui: parser is required")
	}
	if deps.Format == nil {
		deps.Format = ics.NewFormatter()
	}
	if deps.Opener == nil {
		deps.Opener = deliver.Opener{}
	}
	if deps.Copy == nil {
		deps.Copy = deliver.CopyToClipboard
	}
	if deps.OpenDir == "" {
		deps.OpenDir = filepath.Join(os.TempDir(), "barbercal")
	}

	ta := textarea.New()
	ta.Placeholder = "Paste your appointment details here..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(8)
	ta.Focus()

	return &App{
		styles:     DefaultStyles(),
		keymap:     DefaultKeyMap(),
		deps:       deps,
		input:      ta,
		focusInput: true,
		width:      80,
		height:     24,
	}, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		tea.SetWindowTitle("Barber Appointment Calendar"),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.input.SetWidth(max(msg.Width-4, 20))
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case parsedMsg:
		a.handleParsed(msg)
		return a, nil

	case savedMsg:
		if msg.err != nil {
			a.notice = ""
			a.state.Message = "Failed to save calendar file: " + msg.err.Error()
			return a, nil
		}
		a.state.Message = ""
		a.notice = "Saved " + msg.path
		return a, nil

	case openedMsg:
		if msg.err != nil {
			a.notice = ""
			a.state.Message = "Failed to open calendar file: " + msg.err.Error()
			return a, nil
		}
		a.state.Message = ""
		a.notice = "Opened " + msg.path
		return a, nil

	case copiedMsg:
		if msg.err != nil {
			a.notice = ""
			a.state.Message = "Failed to copy calendar file: " + msg.err.Error()
			return a, nil
		}
		a.state.Message = ""
		a.notice = "Copied to clipboard"
		return a, nil
	}

	var cmd tea.Cmd
	if a.focusInput {
		a.input, cmd = a.input.Update(msg)
	}
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keymap.Parse):
		return a, a.startParse()
	case key.Matches(msg, a.keymap.Focus):
		a.setFocus(!a.focusInput)
		return a, nil
	case key.Matches(msg, a.keymap.Save):
		return a, a.saveSelected()
	case key.Matches(msg, a.keymap.Open):
		return a, a.openSelected()
	case key.Matches(msg, a.keymap.Copy):
		return a, a.copySelected()
	}

	// Input mode: everything else edits the paste.
	if a.focusInput {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keymap.Up):
		if a.selected > 0 {
			a.selected--
		}
	case key.Matches(msg, a.keymap.Down):
		if a.selected < len(a.state.Results)-1 {
			a.selected++
		}
	case msg.Type == tea.KeyRunes:
		// Typing while the list has focus goes back to the paste.
		a.setFocus(true)
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) setFocus(input bool) {
	a.focusInput = input
	if input {
		a.input.Focus()
		return
	}
	a.input.Blur()
}

// startParse begins a pass over the textarea. A second request while one is
// in flight is ignored.
func (a *App) startParse() tea.Cmd {
	if a.state.Busy {
		return nil
	}
	text := a.input.Value()
	a.state.Begin(text)
	a.notice = ""

	p := a.deps.Parser
	m := a.deps.Metrics
	return func() tea.Msg {
		start := time.Now()
		appts, err := p.Parse(text)
		if m != nil {
			m.ObserveParse(appts, err, time.Since(start))
		}
		return parsedMsg{appts: appts, err: err}
	}
}

func (a *App) handleParsed(msg parsedMsg) {
	a.state.Finish(msg.appts, msg.err)
	a.selected = 0
	if msg.err != nil {
		appLog.Debug("tui parse failed", "err", msg.err)
		a.setFocus(true)
		return
	}
	a.setFocus(len(a.state.Results) == 0)
}

// selectedDocument renders the selected appointment. ok is false when
// nothing is selected.
func (a *App) selectedDocument() (model.Appointment, string, bool) {
	appt, ok := a.state.At(a.selected)
	if !ok {
		return model.Appointment{}, "", false
	}
	return appt, a.deps.Format.Format(appt), true
}

func (a *App) saveSelected() tea.Cmd {
	appt, body, ok := a.selectedDocument()
	if !ok {
		return nil
	}
	dir := a.deps.OutputDir
	name := deliver.FileName(a.deps.Prefix, appt)
	m := a.deps.Metrics
	return func() tea.Msg {
		path, err := deliver.Save(dir, name, body)
		if err == nil && m != nil {
			m.ObserveExport("file", 1)
		}
		return savedMsg{path: path, err: err}
	}
}

func (a *App) openSelected() tea.Cmd {
	appt, body, ok := a.selectedDocument()
	if !ok {
		return nil
	}
	dir := a.deps.OpenDir
	name := deliver.FileName(a.deps.Prefix, appt)
	opener := a.deps.Opener
	m := a.deps.Metrics
	return func() tea.Msg {
		path, err := deliver.Save(dir, name, body)
		if err != nil {
			return openedMsg{err: err}
		}
		if err := opener.Open(path); err != nil {
			return openedMsg{path: path, err: err}
		}
		if m != nil {
			m.ObserveExport("open", 1)
		}
		return openedMsg{path: path}
	}
}

func (a *App) copySelected() tea.Cmd {
	_, body, ok := a.selectedDocument()
	if !ok {
		return nil
	}
	cp := a.deps.Copy
	m := a.deps.Metrics
	return func() tea.Msg {
		err := cp(body)
		if err == nil && m != nil {
			m.ObserveExport("clipboard", 1)
		}
		return copiedMsg{err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	sections := make([]string, 0, 8)

	sections = append(sections,
		a.styles.Title.Render("Barber Appointment Calendar"),
		a.styles.Label.Render("Paste your appointment details:"),
		a.styles.Input.Render(a.input.View()),
	)

	switch {
	case a.state.Busy:
		sections = append(sections, a.styles.Busy.Render("Processing..."))
	case a.state.Message != "":
		sections = append(sections, a.styles.Error.Render(a.state.Message))
	case a.notice != "":
		sections = append(sections, a.styles.Success.Render(a.notice))
	}

	if len(a.state.Results) > 0 {
		sections = append(sections, "", a.styles.Heading.Render("Parsed Appointments"))
		for i, appt := range a.state.Results {
			sections = append(sections, a.renderCard(appt, i == a.selected && !a.focusInput))
		}
	}

	sections = append(sections, "", a.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderCard(appt model.Appointment, selected bool) string {
	style := a.styles.Card
	if selected {
		style = a.styles.Selected
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		a.styles.Heading.Render(appt.Start.Format("Monday, 2 January 2006")),
		"  ",
		a.styles.Badge.Render(appt.Format.String()),
	)
	lines := []string{
		header,
		"Time: " + appt.Start.Format("15:04"),
		a.styles.Heading.Render(appt.Title),
	}
	if appt.Description != "" {
		lines = append(lines, a.styles.Muted.Render(appt.Description))
	}
	return style.Width(max(a.width-4, 20)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderHelp() string {
	parts := make([]string, 0, len(a.keymap.ShortHelp()))
	for _, b := range a.keymap.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return a.styles.Muted.Render(strings.Join(parts, " • "))
}

// Results returns the current result set.
func (a *App) Results() []model.Appointment { return a.state.Results }

// Selected returns the index of the highlighted result.
func (a *App) Selected() int { return a.selected }

// InputFocused reports whether the textarea has focus.
func (a *App) InputFocused() bool { return a.focusInput }

// Message returns the current status message.
func (a *App) Message() string { return a.state.Message }

// SetInput replaces the textarea contents.
func (a *App) SetInput(text string) { a.input.SetValue(text) }

// Run starts the program on the terminal and blocks until the user quits
// or ctx is cancelled.
func Run(ctx context.Context, deps Deps) error {
	app, err := NewApp(deps)
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
