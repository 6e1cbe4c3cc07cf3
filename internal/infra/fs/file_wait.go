package fs

import (
	"context"
	"fmt"
	"os"
	"time"
)

// WaitForFile polls until filePath exists and is non-empty, backing off
// exponentially (capped at 500ms). It gives up after maxWait or when ctx ends.
func WaitForFile(ctx context.Context, filePath string, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	delay := 50 * time.Millisecond

	for {
		if info, err := os.Stat(filePath); err == nil && info.Size() > 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for file %s after %v", filePath, maxWait)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		delay *= 2
		if delay > 500*time.Millisecond {
			delay = 500 * time.Millisecond
		}
	}
}
