// Package refresh rebuilds the version source from upstream SDK releases.
//
// A refresh fetches the release list of every configured language
// concurrently, normalizes the tags into versions and adds a record for each
// version the version source does not know yet. Existing records are never
// modified apart from losing their latest flag to a newer release. The new
// document is written under an exclusive file lock with a backup of the
// previous one, and package manifests for the new versions are written into
// the template tree.
//
// Release lists come from a ReleaseSource. GitHub is the production source;
// its responses are cached with their ETag in a releasecache.Cache so
// unchanged lists cost a conditional request only.
package refresh
