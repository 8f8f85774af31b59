// Package process starts and stops local model server processes.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/chatd/internal/core/domain"
	"github.com/custodia-labs/chatd/internal/core/ports/driven"
	"github.com/custodia-labs/chatd/internal/logger"
)

// Ensure Launcher implements the interface.
var _ driven.ServerLauncher = (*Launcher)(nil)

// DefaultStopTimeout is how long Stop waits after a graceful signal before
// killing the process group.
const DefaultStopTimeout = 5 * time.Second

// Config holds launcher configuration.
type Config struct {
	// Output receives the server's stdout and stderr. Nil discards them.
	Output io.Writer

	// StopTimeout overrides DefaultStopTimeout.
	StopTimeout time.Duration
}

// Launcher starts server processes in their own process group so the whole
// tree can be terminated.
type Launcher struct {
	output      io.Writer
	stopTimeout time.Duration
}

// NewLauncher creates a launcher.
func NewLauncher(cfg Config) *Launcher {
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	return &Launcher{output: cfg.Output, stopTimeout: cfg.StopTimeout}
}

// Launch starts spec.Binary with spec.Args. The child inherits the current
// environment plus spec.Env.
func (l *Launcher) Launch(_ context.Context, spec domain.LaunchSpec) (driven.ServerProcess, error) {
	if spec.Binary == "" {
		return nil, fmt.Errorf("%w: empty binary", domain.ErrInvalidInput)
	}
	path, err := exec.LookPath(spec.Binary)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", spec.Binary, err)
	}

	// Not CommandContext: the server outlives the request that started it.
	cmd := exec.Command(path, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = l.output
	cmd.Stderr = l.output
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", filepath.Base(path), err)
	}
	logger.Debug("started %s (pid %d)", path, cmd.Process.Pid)

	p := &Process{
		cmd:         cmd,
		exited:      make(chan struct{}),
		stopTimeout: l.stopTimeout,
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()
	return p, nil
}

// Process is a running server started by Launcher.
type Process struct {
	cmd         *exec.Cmd
	exited      chan struct{}
	waitErr     error
	stopTimeout time.Duration
	stopOnce    sync.Once
	stopErr     error
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Exited is closed when the process ends.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Err returns the process exit error once Exited is closed.
func (p *Process) Err() error {
	select {
	case <-p.exited:
		return p.waitErr
	default:
		return nil
	}
}

// Stop terminates the process tree and waits for the process to exit.
// Calling Stop on an exited process is a no-op.
func (p *Process) Stop() error {
	p.stopOnce.Do(func() {
		p.stopErr = p.stop()
	})
	return p.stopErr
}

func (p *Process) stop() error {
	select {
	case <-p.exited:
		return nil
	default:
	}

	pid := p.PID()
	if err := terminateTree(pid); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Debug("terminate pid %d: %v", pid, err)
	}

	select {
	case <-p.exited:
		return nil
	case <-time.After(p.stopTimeout):
	}

	logger.Warn("server pid %d did not exit, killing it", pid)
	if err := killTree(pid); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}
	<-p.exited
	return nil
}
