// Package registry loads, queries and persists the version source: the
// document that lists, for every SDK language, its released versions with
// image, ports and declared compatibility edges.
//
// A Registry is an owned value. The engine loads one per process, passes it
// to the matrix builder and environment generator, and only the refresh flow
// mutates it (Put, Update) before writing it back with SaveFile.
package registry
