package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/diogo/nutribuddy/internal/config"
	"github.com/diogo/nutribuddy/internal/render"
)

// setupHome points the config directory at a temp dir and clears the
// environment overrides.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, env := range []string{
		config.EnvAPIKey,
		config.EnvServerURL,
		config.EnvListenAddr,
		config.EnvModel,
		config.EnvRequestTimeout,
	} {
		t.Setenv(env, "")
	}
	t.Setenv(render.EnvStyle, render.StyleNoTTY)
	return home
}

// execute runs a fresh command tree and captures its output
func execute(ctx context.Context, deps *Dependencies, stdin string, args ...string) (string, string, error) {
	cmd := NewRootCmd(deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}
