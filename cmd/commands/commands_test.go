package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orderviz/internal/infra/log"
	"orderviz/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersCSV = `Order ID,Order Date and Time,Order Value,Commission Fee,Delivery Fee,Payment Method
1,2024-01-01 10:00:00,100,10,30,Cash
2,2024-01-01 14:00:00,50,5,0,Card
3,2024-01-02 09:00:00,20,2,30,Cash
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ORDERVIZ_LOG_DIR", filepath.Join(dir, "logs"))
	t.Cleanup(log.UseNop)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(dir, "missing.env")))
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestSummaryCommand(t *testing.T) {
	out, err := execute(t, "summary", "--source", writeCSV(t, ordersCSV))
	require.NoError(t, err)

	assert.Contains(t, out, "Rows: 3 (ragged 0), policy skip")
	assert.Contains(t, out, "Daily sums (3 used, 0 skipped, 0 as zero)")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "150.00")
	assert.Contains(t, out, "Payment methods (3 used")
	assert.Less(t, strings.Index(out, "Cash"), strings.Index(out, "Card"))
}

func TestRenderCommand(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "charts")
	out, err := execute(t, "render", "--source", writeCSV(t, ordersCSV), "--out", outDir, "--format", "svg")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "index.html"), strings.TrimSpace(out))
	assert.FileExists(t, filepath.Join(outDir, "order_value_daily.svg"))
	assert.FileExists(t, filepath.Join(outDir, "payment_methods.svg"))
	assert.FileExists(t, filepath.Join(outDir, "delivery_fee_frequency.svg"))
}

func TestRenderCommandMissingFile(t *testing.T) {
	outDir := t.TempDir()
	_, err := execute(t, "render", "--source", filepath.Join(outDir, "nope.csv"), "--out", outDir)
	require.Error(t, err)
	assert.True(t, pipeline.IsReported(err))
	assert.FileExists(t, filepath.Join(outDir, "index.html"))
}

func TestRenderCommandRejectsBadPolicy(t *testing.T) {
	_, err := execute(t, "render", "--source", "x.csv", "--policy", "ignore")
	require.Error(t, err)
	assert.False(t, pipeline.IsReported(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "orderviz 1.0.0\n", out)
}
