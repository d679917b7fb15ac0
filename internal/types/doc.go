// Package types defines the column data-type model shared by every other
// internal package.
//
// This package contains type definitions only. All other internal packages
// import types; types imports nothing internal. This keeps the type model
// the foundational layer with no circular dependencies.
//
// A DataType is a small value type identifying the element type of a column,
// a literal, or an intermediate result. Equality is plain == comparison.
// Fixed-width kinds fit in at most 8 bytes, which is what allows the
// evaluator to store intermediates in a flat slot buffer.
package types
