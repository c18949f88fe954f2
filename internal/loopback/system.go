package loopback

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// OpenSystemBrowser opens url with the platform's default handler.
func OpenSystemBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	// The opener exits once the browser has the URL.
	go func() { _ = cmd.Wait() }()
	return nil
}
