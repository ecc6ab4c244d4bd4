// Package deliver hands generated calendar documents to the user: saved as
// files, opened in the default calendar application or copied to the
// clipboard.
package deliver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"

	appLog "barbercal/internal/log"
	"barbercal/internal/model"
)

// DefaultPrefix is the file name stem used when none is configured.
const DefaultPrefix = "barber_appointment"

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osWindows = "windows"
)

// maxCollisions bounds the _2, _3, ... suffix search.
const maxCollisions = 1000

// FileName returns <prefix>_<YYYY-MM-DD>.ics for the appointment's
// wall-clock start date.
func FileName(prefix string, appt model.Appointment) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%s.ics", prefix, appt.Start.Format("2006-01-02"))
}

// Save writes content to dir/name. An existing file is never overwritten:
// the name gets a _2, _3, ... suffix instead. It returns the path written.
func Save(dir, name, content string) (string, error) {
	if name == "" {
		return "", errors.New("deliver: empty file name")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 1; i <= maxCollisions; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}

		if _, err := f.WriteString(content); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}

		appLog.Info("calendar file saved", "path", path, "bytes", len(content))
		return path, nil
	}
	return "", fmt.Errorf("deliver: too many files named %s in %s", name, dir)
}

// Opener launches a file in the platform's default application.
type Opener struct {
	// Command overrides the launcher; nil uses the platform default.
	Command func(path string) *exec.Cmd
}

// Open starts the default handler for path and does not wait for it.
func (o Opener) Open(path string) error {
	build := o.Command
	if build == nil {
		build = openCommand
	}
	cmd := build(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("deliver: open %s: %w", path, err)
	}
	appLog.Info("calendar file handed off", "path", path, "launcher", filepath.Base(cmd.Path))

	// Reap the launcher in the background.
	go func() { _ = cmd.Wait() }()
	return nil
}

// openCommand returns the OS-specific "open with default app" command.
func openCommand(path string) *exec.Cmd {
	switch runtime.GOOS {
	case osDarwin:
		return exec.Command("open", path)
	case osWindows:
		return exec.Command("cmd", "/c", "start", "", path)
	default:
		return exec.Command("xdg-open", path)
	}
}

// CopyToClipboard places content on the system clipboard.
func CopyToClipboard(content string) error {
	if err := clipboard.WriteAll(content); err != nil {
		return fmt.Errorf("deliver: clipboard: %w", err)
	}
	return nil
}
