package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

// DesktopBackend delivers native desktop notifications through the
// platform's own tooling. Availability depends on the host: notify-send on
// Linux, osascript on macOS, PowerShell toasts on Windows.
type DesktopBackend struct {
	tool      string
	available bool
}

// NewDesktopBackend probes the platform notification tool once.
func NewDesktopBackend() *DesktopBackend {
	b := &DesktopBackend{}
	switch runtime.GOOS {
	case "linux":
		b.tool = "notify-send"
	case "darwin":
		b.tool = "osascript"
	case "windows":
		b.tool = "powershell"
	default:
		return b
	}
	_, err := exec.LookPath(b.tool)
	b.available = err == nil
	return b
}

func (b *DesktopBackend) Name() string { return "desktop" }

func (b *DesktopBackend) Available() bool { return b.available }

func (b *DesktopBackend) Attempt(ctx context.Context, title, message string, d time.Duration) error {
	if !b.available {
		return fmt.Errorf("desktop notifications unavailable on %s", runtime.GOOS)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		expire := fmt.Sprintf("%d", d.Milliseconds())
		cmd = exec.CommandContext(ctx, b.tool, "-t", expire, title, message)
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		cmd = exec.CommandContext(ctx, b.tool, "-e", script)
	case "windows":
		script := fmt.Sprintf(
			`[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] > $null; `+
				`New-BurntToastNotification -Text %q, %q`, title, message)
		cmd = exec.CommandContext(ctx, b.tool, "-NoProfile", "-Command", script)
	default:
		return fmt.Errorf("desktop notifications unavailable on %s", runtime.GOOS)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", b.tool, err, out)
	}
	return nil
}
