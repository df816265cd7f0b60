package cmd

import (
	"bytes"
	"testing"

	"github.com/iksnae/fileconv/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so runs do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, child := range c.Commands() {
		resetFlags(child)
	}
}

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), err
}

// newTestEnv starts a fake backend and writes a config pointing at it.
func newTestEnv(t *testing.T, extra string) (*testutil.FakeAPI, string, string) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	dir := testutil.CreateTempDir(t)
	configFile := testutil.CreateConfigFixture(t, dir, api.URL, extra)
	return api, dir, configFile
}
