package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/demostore"
	"github.com/roach88/storecheck/internal/testutil"
)

// newTestOptions wires the simulated storefront with the demo account and
// sequential run IDs.
func newTestOptions() *RootOptions {
	return &RootOptions{
		Provider: demostore.NewProvider(demostore.Options{
			Latency:  5 * time.Millisecond,
			Accounts: map[string]string{"jakubszczypek": "1234"},
		}),
		IDs: testutil.NewSequenceIDGenerator("run"),
	}
}

// execute runs the root command with fast waits prepended to args.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--timeout", "80ms", "--poll", "5ms"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "storecheck", cmd.Use)
	assert.Contains(t, cmd.Long, "demoblaze")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"run"},
		{"scenario"},
		{"layout"},
		{"layout", "validate"},
		{"layout", "show"},
		{"history"},
		{"trace"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	tests := map[string]string{
		"format":  "text",
		"browser": "chrome",
		"driver":  "playwright",
		"timeout": "10s",
		"poll":    "100ms",
		"headed":  "false",
		"db":      "",
	}
	for name, def := range tests {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue, name)
	}
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	parallel := runCmd.Flags().Lookup("parallel")
	require.NotNil(t, parallel)
	assert.Equal(t, "1", parallel.DefValue)
	require.NotNil(t, runCmd.Flags().Lookup("filter"))
}

func TestScenarioCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	scCmd, _, err := cmd.Find([]string{"scenario"})
	require.NoError(t, err)

	for _, name := range []string{
		"username", "password", "positions",
		"buyer-name", "buyer-country", "buyer-city", "buyer-card", "buyer-month", "buyer-year",
	} {
		assert.NotNil(t, scCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, newTestOptions(), "--format", "xml", "layout", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidDriver(t *testing.T) {
	_, _, err := execute(t, newTestOptions(), "--driver", "selenium", "layout", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid driver")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	wrapped := WrapExitError(ExitFailure, "scenario failed", errors.New("timeout"))
	assert.Equal(t, "scenario failed: timeout", wrapped.Error())
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}
