// Package eval replays a compiled program row by row over in-memory
// columns.
//
// It is the host-side reference for the program contract: a sequential
// stand-in for the parallel per-row executor, useful for the CLI, for
// golden tests, and for checking that a program is self-sufficient. Each
// row is evaluated against a temporary buffer of exactly the program's
// PeakIntermediateCount slots; a program that would index outside that
// buffer is rejected, which is precisely the guarantee the slot allocator
// exists to provide.
//
// Rows are independent: replay performs the same fixed instruction
// sequence for every row and no state crosses rows.
package eval
