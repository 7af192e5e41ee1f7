package sdkmatrix

import (
	"context"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/core"
	"github.com/giantswarm/sdkmatrix/internal/driver"
	"github.com/giantswarm/sdkmatrix/internal/envgen"
	"github.com/giantswarm/sdkmatrix/internal/matrix"
	"github.com/giantswarm/sdkmatrix/internal/orchestrator"
	"github.com/giantswarm/sdkmatrix/internal/refresh"
)

// Engine runs the matrix pipeline against one configuration.
//
// Every method reads the version source afresh, so Refresh followed by
// Generate on the same Engine sees the new versions. An Engine performs no
// locking of its own beyond the file locks Generate and Refresh take; run
// one operation at a time per output directory.
type Engine interface {
	// Matrix returns the combinations selected by f, sorted by client
	// language, client version, server language and server version, with
	// their port assignments. Nothing is written.
	Matrix(f Filter) (Plan, error)

	// Generate writes the environments of the combinations selected by f.
	// Per-artifact failures are listed in the report; the error is reserved
	// for failures that stop the whole pass (unreadable version source,
	// unknown filter target, port exhaustion).
	Generate(ctx context.Context, f Filter) (Plan, *GenerateReport, error)

	// Run drives the environments selected by t through build, start,
	// test and teardown, one at a time. Teardown always runs; its failures
	// are logged, never returned. A failing environment is recorded in the
	// summary and the run moves on.
	Run(ctx context.Context, t Target) (Summary, error)

	// Refresh adds newly released upstream versions to the version source
	// and writes their package manifests.
	Refresh(ctx context.Context) (RefreshResult, error)

	// Cleanup removes leftover containers and networks of compose projects
	// carrying the configured prefix.
	Cleanup(ctx context.Context) (SweepReport, error)
}

// Filter pins parts of the matrix. Empty fields match everything.
type Filter = matrix.Filter

// Combination is one client/server version pair.
type Combination = matrix.Combination

// Plan is a built matrix with its port assignments.
type Plan = core.Plan

// Target selects the environments of a run.
type Target = core.Target

// GenerateReport lists the written artifacts and the failed ones.
type GenerateReport = envgen.Report

// Summary is the outcome of a run.
type Summary = orchestrator.Summary

// Result is the outcome of one environment.
type Result = orchestrator.Result

// RefreshResult lists the versions a refresh added.
type RefreshResult = refresh.Result

// SweepReport lists what Cleanup removed.
type SweepReport = driver.SweepReport

// Driver executes the lifecycle steps of one environment directory.
type Driver = orchestrator.Driver

// Output is the captured output of one driver step.
type Output = driver.Output

// ReleaseSource lists the upstream releases of a language.
type ReleaseSource = refresh.ReleaseSource

// Release is one upstream release.
type Release = refresh.Release

// Language describes how one SDK language is packaged and launched.
type Language = config.Language
