package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benaskins/keystore/internal/keychain"
)

func writeMemoryConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "backend: memory\n" +
		"service: com.keystore.cli-test\n" +
		"audit_log: " + filepath.Join(dir, "audit.log") + "\n" +
		"metadata: " + filepath.Join(dir, "metadata.json") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0600))
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	logLevel = "warn"
	require.NoError(t, clearCmd.Flags().Set("yes", "false"))

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSetCommand(t *testing.T) {
	cfg := writeMemoryConfig(t)

	_, stderr, err := run(t, "--config", cfg, "set", "alice", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, stderr, `Secret "alice" stored`)

	audit, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "audit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(audit), `"action":"secret_write"`)
	assert.NotContains(t, string(audit), "s3cret")
}

func TestGetCommandMissing(t *testing.T) {
	cfg := writeMemoryConfig(t)

	_, _, err := run(t, "--config", cfg, "get", "nobody")
	require.ErrorIs(t, err, errNoValue)
	assert.Contains(t, err.Error(), `"nobody"`)
}

func TestRemoveCommandMissing(t *testing.T) {
	cfg := writeMemoryConfig(t)

	_, stderr, err := run(t, "--config", cfg, "rm", "nobody")
	require.NoError(t, err)
	assert.Contains(t, stderr, `Secret "nobody" removed`)
}

func TestClearRequiresConfirmation(t *testing.T) {
	cfg := writeMemoryConfig(t)

	_, _, err := run(t, "--config", cfg, "clear")
	require.Error(t, err)

	_, _, err = run(t, "--config", cfg, "clear", "--yes")
	require.NoError(t, err)
}

func TestRotateCommand(t *testing.T) {
	cfg := writeMemoryConfig(t)

	_, stderr, err := run(t, "--config", cfg, "rotate", "alice", "echo rotated")
	require.NoError(t, err)
	assert.Contains(t, stderr, `Secret "alice" rotated`)
}

func TestInvalidLogLevel(t *testing.T) {
	cfg := writeMemoryConfig(t)

	_, _, err := run(t, "--config", cfg, "--log-level", "loud", "get", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-level")
}

func TestBackendsCommand(t *testing.T) {
	cfg := writeMemoryConfig(t)

	stdout, _, err := run(t, "--config", cfg, "backends")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configured backend: memory (group com.keystore.cli-test)")
	assert.Contains(t, stdout, "KEYRING BACKEND")
}

func TestReadSecretFromPipe(t *testing.T) {
	for name, input := range map[string]string{
		"lf":   "s3cret\n",
		"crlf": "s3cret\r\n",
		"none": "s3cret",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "in")
			require.NoError(t, os.WriteFile(path, []byte(input), 0600))
			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			got, err := readSecretFrom(f)
			require.NoError(t, err)
			assert.Equal(t, "s3cret", got)
		})
	}
}

func TestEmptyAccountArgument(t *testing.T) {
	cfg := writeMemoryConfig(t)

	for _, args := range [][]string{
		{"get", ""},
		{"set", "", "value"},
		{"rm", ""},
	} {
		_, _, err := run(t, append([]string{"--config", cfg}, args...)...)
		assert.ErrorIs(t, err, keychain.ErrEmptyAccount, "%v", args)
	}
}
