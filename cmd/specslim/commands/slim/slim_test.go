package slim

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specslim/specslim/circular"
	"github.com/specslim/specslim/document"
	"github.com/specslim/specslim/internal/config"
	"github.com/specslim/specslim/system"
	"github.com/specslim/specslim/yml"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storeSpec = `openapi: 3.0.3
info:
  title: Store
  version: "1.0"
paths:
  /orders:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Order'
  /users:
    get:
      responses:
        "200":
          description: ok
components:
  schemas:
    Order:
      type: object
      properties:
        customer:
          $ref: '#/components/schemas/Customer'
    Customer:
      type: object
      properties:
        orders:
          type: array
          items:
            $ref: '#/components/schemas/Order'
    Unused:
      type: string
`

func newTestProcessor(t *testing.T, settings *config.Settings) (*Processor, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	if settings == nil {
		settings = config.Defaults()
	}

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	p := &Processor{
		Settings: settings,
		FS:       &system.FileSystem{},
		Stdout:   stdout,
		Stderr:   stderr,
	}
	p.Logger = newLogger(p.stderr(), settings)
	return p, stdout, stderr
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestShortenProfile_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"specs/store.yaml": storeSpec,
		"orders.yaml": `inputs: [specs/store.yaml]
output: out/orders.json
paths:
  /orders: [get]
resolveCircular: true
`,
	})

	p, _, stderr := newTestProcessor(t, nil)
	result, err := shortenProfile(t.Context(), p, &document.FSLoader{FS: p.FS}, filepath.Join(dir, "orders.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.Paths)
	assert.Equal(t, 1, result.Stats.Operations)
	assert.Equal(t, 2, result.Stats.Components)
	assert.Equal(t, 1, result.Stats.RemovedReferences)

	out := readJSON(t, filepath.Join(dir, "out", "orders.json"))
	assert.Contains(t, out["paths"], "/orders")
	assert.NotContains(t, out["paths"], "/users")
	schemas := out["components"].(map[string]any)["schemas"].(map[string]any)
	assert.Contains(t, schemas, "Order")
	assert.Contains(t, schemas, "Customer")
	assert.NotContains(t, schemas, "Unused")

	report := readJSON(t, filepath.Join(dir, "out", circular.DefaultReportName))
	assert.Len(t, report["removed_references"], 1)

	assert.Contains(t, stderr.String(), "orders: kept 1 paths, 1 operations and 2 components")
	assert.Contains(t, stderr.String(), "Document written to:")
}

func TestShortenProfile_Error(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"swagger.yaml": "swagger: \"2.0\"\npaths: {}\n",
		"old.yaml":     "inputs: [swagger.yaml]\noutput: out.yaml\npaths:\n  /a: [get]\n",
		"missing.yaml": "inputs: [nope.yaml]\noutput: out.yaml\npaths:\n  /a: [get]\n",
		"invalid.yaml": "inputs: []\n",
	})

	tests := []struct {
		name     string
		profile  string
		contains string
	}{
		{name: "unsupported version", profile: "old.yaml", contains: "unsupported OpenAPI version"},
		{name: "missing input", profile: "missing.yaml", contains: "nope.yaml"},
		{name: "invalid profile", profile: "invalid.yaml", contains: "invalid profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, _, _ := newTestProcessor(t, nil)
			_, err := shortenProfile(t.Context(), p, &document.FSLoader{FS: p.FS}, filepath.Join(dir, tt.profile))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.NoFileExists(t, filepath.Join(dir, "out.yaml"))
		})
	}
}

func TestBatch_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"store.yaml":  storeSpec,
		"orders.yaml": "inputs: [store.yaml]\noutput: out/orders.yaml\npaths:\n  /orders: [get]\n",
		"users.yaml":  "inputs: [store.yaml]\noutput: out/users.yaml\npaths:\n  /users: \"*\"\n",
	})

	p, _, stderr := newTestProcessor(t, nil)
	err := batch(t.Context(), p, []string{filepath.Join(dir, "orders.yaml"), filepath.Join(dir, "users.yaml")})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "out", "orders.yaml"))
	assert.FileExists(t, filepath.Join(dir, "out", "users.yaml"))
	assert.Contains(t, stderr.String(), "Processed 2 profiles, 1 source documents cached")
}

func TestBatch_Error(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"store.yaml":  storeSpec,
		"orders.yaml": "inputs: [store.yaml]\noutput: out/orders.yaml\npaths:\n  /orders: [get]\n",
		"broken.yaml": "inputs: [gone.yaml]\noutput: out/broken.yaml\npaths:\n  /orders: [get]\n",
	})

	settings := config.Defaults()
	settings.Concurrency = 1

	p, _, _ := newTestProcessor(t, settings)
	err := batch(t.Context(), p, []string{filepath.Join(dir, "broken.yaml"), filepath.Join(dir, "orders.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 profiles failed")
	assert.Contains(t, err.Error(), "gone.yaml")

	assert.FileExists(t, filepath.Join(dir, "out", "orders.yaml"), "other profiles still run")
	assert.NoFileExists(t, filepath.Join(dir, "out", "broken.yaml"))
}

func TestResolveDocument_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"store.yaml": storeSpec})

	p, _, _ := newTestProcessor(t, nil)
	output := filepath.Join(dir, "out", "resolved.yaml")
	report, err := resolveDocument(t.Context(), p, filepath.Join(dir, "store.yaml"), output, "", false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Passes)
	assert.Len(t, report.DetectedCycles, 1)
	assert.Len(t, report.RemovedReferences, 1)
	assert.Empty(t, report.RemainingCycles)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), circular.PlaceholderKey)
	assert.Contains(t, string(data), "Unused")

	assert.FileExists(t, filepath.Join(dir, "out", circular.DefaultReportName))
}

func TestResolveCmd_DescribesPlaceholder_Success(t *testing.T) {
	t.Parallel()

	for _, key := range yml.MapKeys(circular.Placeholder("Node")) {
		assert.Contains(t, resolveCmd.Long, key)
	}
	assert.Contains(t, resolveCmd.Long, "type object")
}

func TestResolveDocument_Stdin_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.yaml")

	p, stdout, stderr := newTestProcessor(t, nil)
	p.Stdin = strings.NewReader(storeSpec)

	report, err := resolveDocument(t.Context(), p, "-", "-", reportPath, true)
	require.NoError(t, err)
	assert.Len(t, report.RemovedReferences, 1)

	assert.Contains(t, stdout.String(), "openapi: 3.0.3")
	assert.Contains(t, stdout.String(), circular.PlaceholderKey)
	assert.NotContains(t, stderr.String(), "openapi: 3.0.3", "status goes to stderr, the document to stdout")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "removed_references:")
}

func TestRunGraph_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"store.yaml": storeSpec})

	tests := []struct {
		format   string
		contains string
	}{
		{format: "text", contains: "Schema Reference Report: Store v1.0"},
		{format: "json", contains: `"sccCount": 1`},
		{format: "mermaid", contains: "graph LR"},
		{format: "dot", contains: "digraph schemas"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			cmd := &cobra.Command{}
			cmd.Flags().String("format", tt.format, "")
			cmd.Flags().String("output", "", "")
			cmd.SetOut(&stdout)
			cmd.SetErr(&stderr)
			cmd.SetContext(withSettings(t.Context(), config.Defaults()))

			require.NoError(t, runGraph(cmd, []string{filepath.Join(dir, "store.yaml")}))
			assert.Contains(t, stdout.String(), tt.contains)
		})
	}
}

func TestRunGraph_Error(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"store.yaml": storeSpec})

	cmd := &cobra.Command{}
	cmd.Flags().String("format", "svg", "")
	cmd.Flags().String("output", "", "")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(withSettings(t.Context(), config.Defaults()))

	require.Error(t, runGraph(cmd, []string{filepath.Join(dir, "store.yaml")}))
	require.Error(t, runGraph(cmd, []string{filepath.Join(dir, "store.txt")}))
}

func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings config.Settings
		message  string
		logged   bool
	}{
		{name: "default drops info", settings: config.Settings{LogFormat: "text"}, message: "info", logged: false},
		{name: "default keeps warnings", settings: config.Settings{LogFormat: "text"}, message: "warn", logged: true},
		{name: "verbose keeps debug", settings: config.Settings{LogFormat: "text", Verbose: true}, message: "debug", logged: true},
		{name: "quiet drops warnings", settings: config.Settings{LogFormat: "text", Quiet: true}, message: "warn", logged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := newLogger(&buf, &tt.settings)
			switch tt.message {
			case "debug":
				logger.Debug("hello")
			case "info":
				logger.Info("hello")
			case "warn":
				logger.Warn("hello")
			}

			assert.Equal(t, tt.logged, strings.Contains(buf.String(), "msg=hello"))
		})
	}

	var buf bytes.Buffer
	newLogger(&buf, &config.Settings{LogFormat: "json"}).Warn("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestProcessor_Quiet_Success(t *testing.T) {
	t.Parallel()

	settings := config.Defaults()
	settings.Quiet = true

	p, _, stderr := newTestProcessor(t, settings)
	p.PrintSuccess("done")
	p.PrintInfo("info")
	p.PrintWarning("careful")
	p.reportElapsed("Batch", time.Now())
	assert.Empty(t, stderr.String())

	loud, _, stderr := newTestProcessor(t, nil)
	loud.PrintSuccess("done")
	loud.PrintWarning("careful")
	loud.reportElapsed("Batch", time.Now())
	assert.Contains(t, stderr.String(), "✅ done")
	assert.Contains(t, stderr.String(), "Batch completed in")
	assert.Contains(t, stderr.String(), "⚠️  Warning: careful")
}

func TestSettingsFrom_Defaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, config.Defaults(), settingsFrom(t.Context()))

	custom := &config.Settings{Concurrency: 9}
	assert.Same(t, custom, settingsFrom(withSettings(t.Context(), custom)))
}

func TestElapsedMessage_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		elapsed  time.Duration
		expected string
	}{
		{name: "rounds to milliseconds", elapsed: 1250 * time.Microsecond, expected: "⏱️  Batch completed in 1ms"},
		{name: "uses minimum of one millisecond", elapsed: 300 * time.Microsecond, expected: "⏱️  Batch completed in 1ms"},
		{name: "supports second-scale durations", elapsed: 1234 * time.Millisecond, expected: "⏱️  Batch completed in 1.234s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, elapsedMessage("Batch", tt.elapsed))
		})
	}
}
