package exec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const openTimeout = 10 * time.Second

// Run executes name with validation and timeout.
// Returns combined output and error
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if err := validateInstalled(name); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		return output, fmt.Errorf("command timed out after %v", timeout)
	}
	return output, err
}

// Opener is the command that hands a file to the desktop's default
// application on goos.
func Opener(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

// OpenFile shows path (the rendered index.html) in the default viewer.
func OpenFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", absPath)
	}

	name, args := Opener(runtime.GOOS)
	if out, err := Run(ctx, openTimeout, name, append(args, absPath)...); err != nil {
		return fmt.Errorf("failed to open %s: %w (%s)", absPath, err, out)
	}
	return nil
}

// validateInstalled checks that name is on PATH.
func validateInstalled(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s is not installed or not in PATH: %w", name, err)
	}
	return nil
}
