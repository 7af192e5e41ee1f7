package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		"success": {
			args:       []string{"sh", "-c", "echo hello"},
			wantCode:   0,
			wantStdout: "hello\n",
		},
		"non-zero exit is a result": {
			args:       []string{"sh", "-c", "echo out; echo err >&2; exit 3"},
			wantCode:   3,
			wantStdout: "out\n",
			wantStderr: "err\n",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, err := Run(context.Background(), Command{Args: tc.args}, nil)
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if res.ExitCode != tc.wantCode {
				t.Errorf("ExitCode = %d, want %d", res.ExitCode, tc.wantCode)
			}
			if res.Success() != (tc.wantCode == 0) {
				t.Errorf("Success() = %v for exit code %d", res.Success(), res.ExitCode)
			}
			if res.Stdout != tc.wantStdout {
				t.Errorf("Stdout = %q, want %q", res.Stdout, tc.wantStdout)
			}
			if res.Stderr != tc.wantStderr {
				t.Errorf("Stderr = %q, want %q", res.Stderr, tc.wantStderr)
			}
		})
	}
}

func TestRunDirAndEnv(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	res, err := Run(context.Background(), Command{
		Args: []string{"sh", "-c", "pwd; echo $SDKMATRIX_TEST"},
		Dir:  dir,
		Env:  []string{"SDKMATRIX_TEST=value"},
	}, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("Stdout = %q, want two lines", res.Stdout)
	}
	wantDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	if gotDir, _ := filepath.EvalSymlinks(lines[0]); gotDir != wantDir {
		t.Errorf("working dir = %s, want %s", lines[0], dir)
	}
	if lines[1] != "value" {
		t.Errorf("env value = %q, want %q", lines[1], "value")
	}
}

func TestRunWritesLogFiles(t *testing.T) {
	t.Parallel()
	logDir := filepath.Join(t.TempDir(), "logs")

	_, err := Run(context.Background(), Command{
		Name:   "build",
		Args:   []string{"sh", "-c", "echo built; echo warn >&2"},
		LogDir: logDir,
	}, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for file, want := range map[string]string{
		"build-stdout.log": "built\n",
		"build-stderr.log": "warn\n",
	} {
		data, err := os.ReadFile(filepath.Join(logDir, file)) //nolint:gosec // G304: test path
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", file, data, want)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := Run(ctx, Command{Args: []string{"sleep", "60"}}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
	if elapsed := time.Since(start); elapsed > TermGracePeriod {
		t.Errorf("Run() took %v, SIGTERM should end sleep promptly", elapsed)
	}
}

func TestRunRejectsBadCommand(t *testing.T) {
	t.Parallel()

	if _, err := Run(context.Background(), Command{}, nil); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("Run(empty) error = %v, want ErrEmptyCommand", err)
	}

	res, err := Run(context.Background(), Command{Args: []string{"sdkmatrix-no-such-binary"}}, nil)
	if err == nil {
		t.Fatal("Run(missing binary) error = nil")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
}
