// Package sentinel provides the immutable error type used for every sentinel
// error in sdkmatrix, together with the error kinds shared across the engine.
//
// Values declared with errors.New live in variables that callers could
// reassign. Error is a string type, so sentinels can be declared as const and
// still be matched with errors.Is through wrapped chains.
package sentinel
