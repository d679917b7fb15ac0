// Package ast defines the expression tree handed to the linearizer.
//
// A tree is built once by a front end (the CUE compiler, a test helper, or
// an embedding application), passed read-only to linearize.Linearize, and
// discarded with the query plan. Nothing in this module ever mutates a node
// after construction.
//
// Node is a sealed interface over exactly three variants:
//   - Literal: a fixed-width scalar value and its type
//   - ColumnReference: a column index on the left or right input table
//   - Expression: an operator applied to one or two operand nodes
//
// The variants are traversed by exhaustive type switches rather than a
// visitor with virtual dispatch, so the compiler checks that every consumer
// handles all three kinds.
package ast
