package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool writes an executable shell script standing in for the deploy tool.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gcloud")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExecute_Success(t *testing.T) {
	tool := fakeTool(t, `echo "deploying $@"; echo "warning" >&2`)

	out, err := New(5*time.Second, nil).Execute(context.Background(), []string{tool, "app", "deploy", "-q"})
	require.NoError(t, err)
	assert.Contains(t, out, "deploying app deploy -q")
	assert.Contains(t, out, "warning")
}

func TestExecute_RelativeToolFromCallerDir(t *testing.T) {
	base := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(base))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.MkdirAll("bin", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("bin", "gcloud"), []byte("#!/bin/sh\npwd -P\n"), 0o755))

	out, err := New(5*time.Second, nil).Execute(context.Background(), []string{"./bin/gcloud"})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(base)
	require.NoError(t, err)
	assert.Equal(t, want+"\n", out)
}

func TestExecute_Failures(t *testing.T) {
	tests := []struct {
		name     string
		command  func(t *testing.T) []string
		timeout  time.Duration
		reason   string
		exitCode int
	}{
		{
			name: "tool missing",
			command: func(t *testing.T) []string {
				return []string{filepath.Join(t.TempDir(), "no-such-gcloud"), "app", "deploy"}
			},
			reason:   "launch",
			exitCode: -1,
		},
		{
			name:     "tool not configured",
			command:  func(t *testing.T) []string { return []string{"", "app", "deploy"} },
			reason:   "launch",
			exitCode: -1,
		},
		{
			name:     "non-zero exit",
			command:  func(t *testing.T) []string { return []string{fakeTool(t, `echo "ERROR: bad project"; exit 3`)} },
			reason:   "exit_code",
			exitCode: 3,
		},
		{
			name:     "timeout",
			command:  func(t *testing.T) []string { return []string{fakeTool(t, `exec sleep 5`)} },
			timeout:  100 * time.Millisecond,
			reason:   "timeout",
			exitCode: -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeout := tt.timeout
			if timeout == 0 {
				timeout = 5 * time.Second
			}

			_, err := New(timeout, nil).Execute(context.Background(), tt.command(t))

			var failed *DeployFailedError
			require.True(t, errors.As(err, &failed), "got %v", err)
			assert.Equal(t, tt.reason, failed.Reason())
			assert.Equal(t, tt.exitCode, failed.ExitCode)
			assert.Contains(t, failed.Error(), "deploying failed")
		})
	}
}

func TestExecute_FailureKeepsOutput(t *testing.T) {
	tool := fakeTool(t, `echo "ERROR: (gcloud.app.deploy) permission denied" >&2; exit 1`)

	out, err := New(5*time.Second, nil).Execute(context.Background(), []string{tool})

	var failed *DeployFailedError
	require.True(t, errors.As(err, &failed))
	assert.Contains(t, out, "permission denied")
	assert.Equal(t, out, failed.Output)
}

func TestNew_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(0, nil).timeout)
}
