package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// ErrEmptyCommand is returned when a Command has no argv.
const ErrEmptyCommand = sentinel.Error("command must not be empty")

// waitDelay bounds how long Wait keeps copying output after the child
// exits, in case a grandchild still holds the pipes.
const waitDelay = 5 * time.Second

// Command describes one external invocation.
type Command struct {
	// Name labels log lines and log files. Defaults to the base name of
	// Args[0].
	Name string
	// Args is the full argv. Args[0] is resolved with exec.LookPath.
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the current environment.
	Env []string
	// LogDir, when set, receives a copy of the output in log files.
	LogDir string
}

// Result is the outcome of a command that ran.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Run starts c and waits for it. A non-zero exit code is returned in the
// Result with a nil error; errors are reserved for commands that could not
// be started or were cut short by ctx, in which case ExitCode is -1 and the
// output captured so far is still returned.
// If logger is nil, slog.Default() is used.
func Run(ctx context.Context, c Command, logger *slog.Logger) (Result, error) {
	if len(c.Args) == 0 || c.Args[0] == "" {
		return Result{ExitCode: -1}, ErrEmptyCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	name := c.Name
	if name == "" {
		name = filepath.Base(c.Args[0])
	}

	path, err := exec.LookPath(c.Args[0])
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%s: %w", name, err)
	}
	cmd := &exec.Cmd{
		Path:      path,
		Args:      c.Args,
		Dir:       c.Dir,
		WaitDelay: waitDelay,
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	configureSysProcAttr(cmd)

	var stdout, stderr bytes.Buffer
	var logs LogFiles
	if c.LogDir != "" {
		logs, err = OpenLogFiles(c.LogDir, name)
		if err != nil {
			return Result{ExitCode: -1}, fmt.Errorf("%s: %w", name, err)
		}
		defer logs.Close()
	}
	cmd.Stdout, cmd.Stderr = logs.tee(&stdout, &stderr)

	logger.Debug("running command", "name", name, "args", c.Args, "dir", c.Dir)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		stopErr := terminate(cmd, done, TermGracePeriod, name)
		res := Result{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: -1,
			Duration: time.Since(start),
		}
		return res, errors.Join(fmt.Errorf("%s: %w", name, ctx.Err()), stopErr)
	}

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		return res, fmt.Errorf("wait %s: %w", name, waitErr)
	}
	logger.Debug("command finished", "name", name, "exit_code", res.ExitCode, "duration", res.Duration)
	return res, nil
}
