package sdkmatrix

import (
	"log/slog"

	"github.com/giantswarm/sdkmatrix/internal/core"
)

// SetLogger replaces the package-level logger used by sdkmatrix. The
// provided logger should already carry any desired attributes; sdkmatrix
// adds per-run attributes such as run_id and environment only.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute. Engines pick up the logger when they are created,
// so call SetLogger before New.
//
// Example:
//
//	sdkmatrix.SetLogger(myLogger.With("component", "sdkmatrix"))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
