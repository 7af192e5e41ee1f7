package registry

import (
	"io"

	"github.com/giantswarm/sdkmatrix/internal/fileutil"
)

// SaveFile persists the registry to path. An existing file is backed up to
// path+".bak" first; the new document is written atomically and the backup
// is restored if writing fails.
func (r *Registry) SaveFile(path string) error {
	if err := fileutil.ReplaceWithBackup(path, 0o644, func(w io.Writer) error {
		return r.Encode(w)
	}); err != nil {
		return err
	}
	r.log.Info("version source saved", "path", path)
	return nil
}
