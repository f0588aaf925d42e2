// Package sentinel provides an immutable error type for sentinel error declarations.
//
// Sentinel errors declared with errors.New are mutable package variables that
// consumers can reassign. Error is a string-based error type that can be
// declared as a const, making sentinel errors truly immutable while remaining
// compatible with errors.Is through wrapped error chains.
package sentinel
