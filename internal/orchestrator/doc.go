// Package orchestrator runs generated environments and collects a
// pass/fail summary.
//
// Each environment goes created → built → running → passed or failed, and
// always ends torn down. A failed build skips straight to failed. There is
// no readiness probing: after the services start the orchestrator waits a
// fixed settle delay, then runs the test entrypoint, whose exit code
// decides the outcome.
//
// Environments run strictly one after another. A failing environment is
// recorded and the run moves on; teardown problems are logged as warnings
// and never reported to the caller.
package orchestrator
