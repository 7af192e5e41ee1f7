// Package sdkmatrix computes and runs the interoperability matrix of SDK
// implementations of one protocol.
//
// A version source (a JSON document, sdkinfo.json by default) lists every
// released version of every SDK together with the versions of each language
// it is declared compatible with. From it sdkmatrix derives one combination
// per declared client/server pair, gives each pair a collision-free port
// pair, writes a self-contained docker compose environment per pair and
// drives every environment through build, start, test and teardown.
//
// # Basic Usage
//
//	import "github.com/giantswarm/sdkmatrix"
//
//	eng, err := sdkmatrix.New(
//	    sdkmatrix.WithRegistryPath("matrix/sdkinfo.json"),
//	    sdkmatrix.WithOutputDir("matrix/docker"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, report, err := eng.Generate(ctx, sdkmatrix.Filter{}); err != nil {
//	    log.Fatal(err)
//	} else if !report.OK() {
//	    log.Print(report.Err())
//	}
//
//	summary, err := eng.Run(ctx, sdkmatrix.Target{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !summary.OK() {
//	    os.Exit(1)
//	}
//
// # Selecting Combinations
//
// A Filter pins any of client language, client version, server language and
// server version. Pinning a language or version the version source does not
// contain fails with ErrNotFound rather than producing an empty matrix.
// Same-language pairs whose client is the latest version are skipped unless
// WithAllPairs is given.
//
// # Refreshing the Version Source
//
// Refresh fetches upstream releases and adds the versions the version source
// does not know yet, with compatibility lists naming the two most recent
// stable versions of every language. The previous document is kept next to
// the new one with a .bak suffix. Set GITHUB_TOKEN (or WithGitHubToken) to
// raise the GitHub rate limit; a refused request stops the refresh with
// ErrRateLimited.
//
// # Error Handling
//
// Failures carry one of the exported error kinds and are matched with
// errors.Is. Per-item failures (one artifact, one environment) never abort
// the rest of a pass; they are listed in the returned report or summary.
package sdkmatrix
