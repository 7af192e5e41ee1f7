package process

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/giantswarm/sdkmatrix/internal/fileutil"
)

// LogFiles holds the stdout/stderr log files of one command.
type LogFiles struct {
	stdout *os.File
	stderr *os.File
	dir    string
	name   string
}

// OpenLogFiles creates (or truncates) "<name>-stdout.log" and
// "<name>-stderr.log" in dir, creating dir if needed.
func OpenLogFiles(dir, name string) (LogFiles, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return LogFiles{}, fmt.Errorf("create log dir: %w", err)
	}
	l := LogFiles{dir: dir, name: name}
	stdout, err := os.Create(l.StdoutPath())
	if err != nil {
		return LogFiles{}, fmt.Errorf("create stdout log: %w", err)
	}
	stderr, err := os.Create(l.StderrPath())
	if err != nil {
		_ = stdout.Close()
		return LogFiles{}, fmt.Errorf("create stderr log: %w", err)
	}
	l.stdout, l.stderr = stdout, stderr
	return l, nil
}

// StdoutPath returns the path of the stdout log.
func (l *LogFiles) StdoutPath() string {
	return filepath.Join(l.dir, l.name+"-stdout.log")
}

// StderrPath returns the path of the stderr log.
func (l *LogFiles) StderrPath() string {
	return filepath.Join(l.dir, l.name+"-stderr.log")
}

// tee returns writers sending to w and, when open, to the log files.
func (l *LogFiles) tee(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if l.stdout == nil || l.stderr == nil {
		return stdout, stderr
	}
	return io.MultiWriter(stdout, l.stdout), io.MultiWriter(stderr, l.stderr)
}

// Close closes both files. It is safe to call more than once.
func (l *LogFiles) Close() {
	if l.stdout != nil {
		_ = l.stdout.Close()
		l.stdout = nil
	}
	if l.stderr != nil {
		_ = l.stderr.Close()
		l.stderr = nil
	}
}
