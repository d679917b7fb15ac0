// Package device stages literal scalar values into the fixed-width views a
// compiled program's literals array stores.
//
// The evaluator treats a LiteralView the way it treats a column cell or an
// intermediate slot: an 8-byte payload plus a type. Views are built through
// an explicitly passed Allocator rather than a process-wide default, so an
// embedding application controls where literal storage lives (host memory
// in this module; a device memory pool in an accelerator build).
package device
