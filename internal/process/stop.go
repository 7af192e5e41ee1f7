package process

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// TermGracePeriod is how long a canceled command gets between SIGTERM and
// SIGKILL.
const TermGracePeriod = 5 * time.Second

// killDrainTimeout bounds the wait for cmd.Wait after SIGKILL.
const killDrainTimeout = 10 * time.Second

// drainDone waits up to timeout for the cmd.Wait result on done. It reports
// false when the timeout elapsed first.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// terminate sends SIGTERM to a running command, escalates to SIGKILL after
// grace and collects the single cmd.Wait result from done. Exits caused by
// either signal are not errors.
func terminate(cmd *exec.Cmd, done <-chan error, grace time.Duration, name string) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone; only the wait result is left to collect.
		ok, waitErr := drainDone(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("%s: timed out collecting exit status", name)
		}
		return signalExit(waitErr, name)
	}

	killTimer := time.AfterFunc(grace, func() {
		_ = cmd.Process.Kill()
	})
	defer killTimer.Stop()

	ok, waitErr := drainDone(done, grace+killDrainTimeout)
	if !ok {
		return fmt.Errorf("%s: timed out waiting for exit after SIGKILL", name)
	}
	return signalExit(waitErr, name)
}

// signalExit filters a cmd.Wait error after a termination signal. SIGTERM
// and SIGKILL exits, and ordinary non-zero exits, are expected.
func signalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status, ok := exitErr.Sys().(syscall.WaitStatus)
		if !ok || !status.Signaled() {
			return nil
		}
		if sig := status.Signal(); sig == syscall.SIGTERM || sig == syscall.SIGKILL {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}
