//go:build !windows

package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

func waitExited(t *testing.T, p interface{ Exited() <-chan struct{} }) {
	t.Helper()
	select {
	case <-p.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestLauncher_EmptyBinary(t *testing.T) {
	_, err := NewLauncher(Config{}).Launch(context.Background(), domain.LaunchSpec{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLauncher_MissingBinary(t *testing.T) {
	_, err := NewLauncher(Config{}).Launch(context.Background(), domain.LaunchSpec{
		Binary: "chatd-no-such-binary",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatd-no-such-binary")
}

func TestLauncher_PassesEnvironment(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.txt")
	p, err := NewLauncher(Config{}).Launch(context.Background(), domain.LaunchSpec{
		Binary: "sh",
		Args:   []string{"-c", `printf '%s' "$CHATD_TEST_VALUE" > "$0"`, out},
		Env:    []string{"CHATD_TEST_VALUE=models"},
	})
	require.NoError(t, err)
	waitExited(t, p)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "models", string(data))
}

func TestLauncher_ExitIsObserved(t *testing.T) {
	p, err := NewLauncher(Config{}).Launch(context.Background(), domain.LaunchSpec{
		Binary: "sh",
		Args:   []string{"-c", "exit 3"},
	})
	require.NoError(t, err)
	waitExited(t, p)

	assert.Error(t, p.(*Process).Err())
	assert.NoError(t, p.Stop())
}

func TestProcess_StopKillsGroup(t *testing.T) {
	out := filepath.Join(t.TempDir(), "child.pid")
	p, err := NewLauncher(Config{StopTimeout: time.Second}).Launch(context.Background(), domain.LaunchSpec{
		Binary: "sh",
		// The grandchild would outlive a plain kill of the shell.
		Args: []string{"-c", `sleep 60 & echo $! > "$0"; wait`, out},
	})
	require.NoError(t, err)
	assert.Positive(t, p.PID())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.TrimSpace(string(data)) != ""
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Stop())
	waitExited(t, p)

	// Stop is idempotent.
	assert.NoError(t, p.Stop())
}

func TestBundledName(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"windows", "ollama.exe"},
		{"darwin", "ollama-darwin"},
		{"linux", "ollama-linux"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			got, err := BundledName(tt.goos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := BundledName("plan9")
	assert.Error(t, err)
}

func TestDataDir(t *testing.T) {
	home := "/home/u"

	linux, err := DataDir("linux", home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "chatd"), linux)

	darwin, err := DataDir("darwin", home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Library", "Application Support", "chatd"), darwin)

	windows, err := DataDir("windows", home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "AppData", "Local", "chatd"), windows)

	_, err = DataDir("plan9", home)
	assert.Error(t, err)
}

func TestDefaultBundledPath(t *testing.T) {
	path, err := DefaultBundledPath()
	require.NoError(t, err)
	assert.Equal(t, "runners", filepath.Base(filepath.Dir(path)))
}

func TestPackagedSpec(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "models")

	spec, err := PackagedSpec("/opt/chatd/runners/ollama-linux", dataDir)
	require.NoError(t, err)

	assert.Equal(t, "/opt/chatd/runners/ollama-linux", spec.Binary)
	assert.Equal(t, []string{"serve"}, spec.Args)
	assert.Equal(t, []string{"OLLAMA_MODELS=" + dataDir}, spec.Env)
	assert.DirExists(t, dataDir)
}

func TestSystemSpec(t *testing.T) {
	spec := SystemSpec()
	assert.Equal(t, "ollama", spec.Binary)
	assert.Equal(t, []string{"serve"}, spec.Args)
}
