package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Opener launches a viewer on a generated bibliography PDF.
type Opener struct {
	viewer string
}

// NewOpener creates an opener. An empty viewer means the platform
// default ("open" on macOS, "xdg-open" on Linux).
func NewOpener(viewer string) *Opener {
	if viewer == "" {
		viewer = "system"
	}
	return &Opener{viewer: viewer}
}

// Open launches the viewer on the given PDF. The viewer is started
// detached; its exit status is not collected.
func (o *Opener) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("PDF file does not exist: %s", path)
		}
		return fmt.Errorf("checking PDF file: %w", err)
	}

	var cmd *exec.Cmd
	switch {
	case o.viewer != "system":
		cmd = exec.Command(o.viewer, path)
	case runtime.GOOS == "darwin":
		cmd = exec.Command("open", path)
	case runtime.GOOS == "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
