// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tidytodo/cmd/tidytodo/cmd"
)

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
	dbPath     string
	viewsDir   string
}

// NewCLITest creates a CLI test helper backed by a fresh SQLite database in a temp dir.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()
	return newCLITest(t, "sqlite", "test.db")
}

// NewCLITestWithFileBackend creates a CLI test helper using the file backend.
func NewCLITestWithFileBackend(t *testing.T) *CLITest {
	t.Helper()
	return newCLITest(t, "file", "state")
}

func newCLITest(t *testing.T, backendName, storageName string) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	storagePath := filepath.Join(tmpDir, storageName)
	viewsDir := filepath.Join(tmpDir, "views")
	configPath := filepath.Join(tmpDir, "config.yaml")

	c := &CLITest{
		t:          t,
		tmpDir:     tmpDir,
		configPath: configPath,
		dbPath:     storagePath,
		viewsDir:   viewsDir,
		cfg: &cmd.Config{
			NoPrompt:   true,
			ConfigPath: configPath,
			IsTerminal: func() bool { return false },
		},
	}
	c.SetFullConfig("storage:\n  backend: " + backendName + "\n  path: " + storagePath + "\nviews_dir: " + viewsDir + "\n")
	return c
}

// Config returns the test configuration.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory for the test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// StoragePath returns the database file or state directory.
func (c *CLITest) StoragePath() string {
	return c.dbPath
}

// ViewsDir returns the views directory. It does not exist until created.
func (c *CLITest) ViewsDir() string {
	return c.viewsDir
}

// ConfigPath returns the path of the test config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// SetConfigValue appends a top-level key to the test config file.
func (c *CLITest) SetConfigValue(key, value string) {
	c.t.Helper()

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		c.t.Fatalf("failed to read config file: %v", err)
	}
	newConfig := string(data) + key + ": " + value + "\n"
	if err := os.WriteFile(c.configPath, []byte(newConfig), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// SetFullConfig replaces the test config file.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()

	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// WriteView writes a view preset into the views directory.
func (c *CLITest) WriteView(name, yamlContent string) {
	c.t.Helper()

	if err := os.MkdirAll(c.viewsDir, 0755); err != nil {
		c.t.Fatalf("failed to create views directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(c.viewsDir, name+".yaml"), []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write view: %v", err)
	}
}

// SetStdin sets the input answered to prompts and enables prompting.
func (c *CLITest) SetStdin(input string) {
	c.cfg.Stdin = strings.NewReader(input)
	c.cfg.NoPrompt = false
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// MustExecuteJSON runs a command with --json and decodes its output into v.
func (c *CLITest) MustExecuteJSON(v any, args ...string) {
	c.t.Helper()

	out := c.MustExecute(append(args, "--json")...)
	if err := json.Unmarshal([]byte(out), v); err != nil {
		c.t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertResultCode verifies that the output ends with the expected result code.
func AssertResultCode(t *testing.T, output, expectedCode string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	if lastLine != expectedCode {
		t.Errorf("expected result code %q, got %q\nFull output:\n%s", expectedCode, lastLine, output)
	}
}

// Result code constants for convenience.
const (
	ResultActionCompleted = cmd.ResultActionCompleted
	ResultInfoOnly        = cmd.ResultInfoOnly
	ResultError           = cmd.ResultError
)
