// Package process runs external commands to completion.
//
// Run captures stdout and stderr in memory, optionally mirrors them into
// "<name>-stdout.log" and "<name>-stderr.log" files, and reports the exit
// code. A non-zero exit is a result, not an error. When the context ends
// first the child gets SIGTERM, then SIGKILL after a grace period.
package process
