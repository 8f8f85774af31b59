package process

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/custodia-labs/chatd/internal/core/domain"
)

const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// SystemBinary is the server executable looked up on PATH.
const SystemBinary = "ollama"

// BundledName returns the file name of the bundled server for goos.
func BundledName(goos string) (string, error) {
	switch goos {
	case osWindows:
		return "ollama.exe", nil
	case osDarwin:
		return "ollama-darwin", nil
	case osLinux:
		return "ollama-linux", nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", goos)
	}
}

// DefaultBundledPath returns runners/<name> next to the running executable.
func DefaultBundledPath() (string, error) {
	name, err := BundledName(runtime.GOOS)
	if err != nil {
		return "", err
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "runners", name), nil
}

// DataDir returns the per-platform application data directory used as
// OLLAMA_MODELS for a bundled server.
func DataDir(goos, home string) (string, error) {
	switch goos {
	case osWindows:
		return filepath.Join(home, "AppData", "Local", "chatd"), nil
	case osDarwin:
		return filepath.Join(home, "Library", "Application Support", "chatd"), nil
	case osLinux:
		return filepath.Join(home, ".config", "chatd"), nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", goos)
	}
}

// DefaultDataDir returns DataDir for the current platform and user.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return DataDir(runtime.GOOS, home)
}

// SystemSpec describes `ollama serve` from PATH.
func SystemSpec() domain.LaunchSpec {
	return domain.LaunchSpec{Binary: SystemBinary, Args: []string{"serve"}}
}

// PackagedSpec describes the bundled server at path storing models in
// dataDir. The directory is created if needed.
func PackagedSpec(path, dataDir string) (domain.LaunchSpec, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return domain.LaunchSpec{}, fmt.Errorf("create data directory: %w", err)
	}
	return domain.LaunchSpec{
		Binary: path,
		Args:   []string{"serve"},
		Env:    []string{"OLLAMA_MODELS=" + dataDir},
	}, nil
}
