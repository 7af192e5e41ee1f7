// Package report renders run summaries and combination listings as
// aligned text tables.
package report
