package exec

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	out, err := Run(context.Background(), time.Second, "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", strings.TrimSpace(string(out)))
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	_, err := Run(context.Background(), 50*time.Millisecond, "sh", "-c", "sleep 5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), time.Second, "orderviz-no-such-binary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}

func TestOpener(t *testing.T) {
	name, args := Opener("darwin")
	assert.Equal(t, "open", name)
	assert.Empty(t, args)

	name, args = Opener("windows")
	assert.Equal(t, "rundll32", name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler"}, args)

	name, _ = Opener("linux")
	assert.Equal(t, "xdg-open", name)
}

func TestOpenFileMissing(t *testing.T) {
	err := OpenFile(context.Background(), filepath.Join(t.TempDir(), "index.html"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
