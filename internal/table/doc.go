// Package table parses semicolon-delimited cube payloads into an in-memory
// tabular structure.
//
// SNB CSV exports start with two metadata rows before the real header; Parse
// takes the number of rows to skip so callers can feed it a raw payload or a
// file saved earlier.
package table
