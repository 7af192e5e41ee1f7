// Package fileutil provides the file operations sdkmatrix relies on for
// generated artifacts and the version source: directory creation, atomic
// writes via temp-file-then-rename, atomic copies, and replace-with-backup
// for files that must never be left half written.
package fileutil
