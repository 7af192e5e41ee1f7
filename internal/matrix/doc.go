// Package matrix derives the client/server combinations to test from the
// declared compatibility edges in a registry.
//
// The business rules are exposed as plain functions so they can be tested on
// their own: SkipSameLanguageLatest is applied while building, while
// IsPrerelease, LatestStable and RefreshCompatibility shape the edges a
// refresh writes back to the version source.
package matrix
