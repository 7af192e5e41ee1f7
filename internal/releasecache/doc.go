// Package releasecache stores upstream release responses in a local SQLite
// database so the refresh flow can issue conditional requests.
//
// Each entry is keyed by request URL and keeps the ETag the server returned
// with the body. A refresh sends the ETag back as If-None-Match and reuses the
// stored body on 304 Not Modified, which does not count against the GitHub
// rate limit.
package releasecache
