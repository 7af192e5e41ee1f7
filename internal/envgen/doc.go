// Package envgen materializes runnable environment descriptors.
//
// Every (language, role, version) in the registry gets a Dockerfile and a
// single-service compose file under {root}/{language}/{role}/{version}/, and
// every combination gets a joint compose file under
// {root}/combinations/{key}/. Content is produced by pure ${NAME}
// substitution over template text from a TemplateSource; the generator never
// interprets the templates.
//
// Failures are per artifact. A missing template, an unknown command or a
// placeholder without a value skips that one file and is listed in the
// Report; all other artifacts are still written. Writes are atomic and a
// pass never removes anything, so regenerating a key overwrites its files
// and leaves other keys alone.
package envgen
