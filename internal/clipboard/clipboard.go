// Package clipboard copies fetched BibTeX to the system clipboard so a
// one-off lookup can be pasted straight into a .bib file.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnavailable means no clipboard utility was found on this system.
var ErrUnavailable = errors.New("clipboard unavailable")

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// command resolves the platform's clipboard-write command.
func command() (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		if _, err := lookPath("pbcopy"); err == nil {
			return exec.Command("pbcopy"), nil
		}
	case "linux":
		if _, err := lookPath("xclip"); err == nil {
			return exec.Command("xclip", "-selection", "clipboard"), nil
		}
		if _, err := lookPath("xsel"); err == nil {
			return exec.Command("xsel", "--clipboard", "--input"), nil
		}
	}
	return nil, ErrUnavailable
}

// Available reports whether a clipboard utility exists.
func Available() bool {
	_, err := command()
	return err == nil
}

// Copy writes text to the system clipboard.
func Copy(text string) error {
	cmd, err := command()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
