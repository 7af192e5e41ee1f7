package sentinel

// Error kinds shared by the engine packages. Callers wrap them with context
// via fmt.Errorf("...: %w", kind) and inspect them with errors.Is.
const (
	// ErrConfig marks a malformed or incomplete version source or configuration.
	ErrConfig = Error("invalid configuration")

	// ErrNotFound marks a lookup of an unknown language, version or environment.
	ErrNotFound = Error("not found")

	// ErrTemplate marks a missing template or a placeholder left unresolved.
	ErrTemplate = Error("template error")

	// ErrPortExhausted marks a port allocation pass that ran past the usable range.
	ErrPortExhausted = Error("port range exhausted")

	// ErrBuild marks a failed environment build step.
	ErrBuild = Error("build failed")

	// ErrRun marks a failed start or test execution step.
	ErrRun = Error("run failed")
)
