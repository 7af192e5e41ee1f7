package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// ErrEmptyPath is returned when a source or destination path is empty.
const ErrEmptyPath = sentinel.Error("path must not be empty")

// BackupSuffix is appended to a file name to form its backup path.
const BackupSuffix = ".bak"

// WriteFileAtomic writes data to dst through a temporary file in the same
// directory, fsyncs it and renames it over dst. Readers observe either the
// old content or the new content, never a partial file. Parent directories
// are created as needed.
func WriteFileAtomic(dst string, data []byte, mode os.FileMode) error {
	return writeAtomic(dst, mode, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

// CopyFile atomically copies src to dst, keeping the permission bits of src.
func CopyFile(src, dst string) (retErr error) {
	if src == "" || dst == "" {
		return ErrEmptyPath
	}

	in, err := os.Open(src) //nolint:gosec // G304: paths are from controlled sources
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("close source: %w", closeErr)
		}
	}()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	return writeAtomic(dst, info.Mode().Perm(), func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// ReplaceWithBackup rewrites path with the output of write. If path already
// exists it is first copied to path+BackupSuffix. The new content is written
// atomically; should that fail, path is restored from the backup and the
// write error is returned (joined with the restore error, if any).
func ReplaceWithBackup(path string, mode os.FileMode, write func(io.Writer) error) error {
	if path == "" {
		return ErrEmptyPath
	}
	backup := path + BackupSuffix

	hadOriginal := true
	if err := CopyFile(path, backup); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backup %s: %w", path, err)
		}
		hadOriginal = false
	}

	werr := writeAtomic(path, mode, write)
	if werr == nil {
		return nil
	}
	if !hadOriginal {
		return werr
	}
	if rerr := CopyFile(backup, path); rerr != nil {
		return errors.Join(werr, fmt.Errorf("restore %s from backup: %w", path, rerr))
	}
	return fmt.Errorf("%w (restored previous version from backup)", werr)
}

// writeAtomic streams fill into a temp file next to dst and renames it into
// place. The temp file is removed on every failure path.
func writeAtomic(dst string, mode os.FileMode, fill func(io.Writer) error) (retErr error) {
	if dst == "" {
		return ErrEmptyPath
	}
	if err := EnsureDirForFile(dst); err != nil {
		return fmt.Errorf("prepare destination: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-"+filepath.Base(dst)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if retErr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := fill(tmp); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	// fsync before rename, otherwise a crash can leave the renamed file empty.
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("rename temp file to destination: %w", err)
	}
	return nil
}
