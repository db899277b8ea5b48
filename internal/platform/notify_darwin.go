//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
)

// Notify displays a desktop notification using macOS Notification Center.
// Urgent messages play the alert sound.
func Notify(title, body string, opts Options) error {
	script := fmt.Sprintf("display notification %q with title %q", body, title)
	if opts.Urgent {
		script += ` sound name "Basso"`
	}
	return exec.Command("osascript", "-e", script).Run()
}
