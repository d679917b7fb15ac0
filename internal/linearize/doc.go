// Package linearize compiles an expression tree into a flat instruction
// program a per-row evaluator replays identically for every row.
//
// Linearization is a single synchronous post-order pass over an immutable
// tree. Operands resolve before their parent; each node appends one data
// reference describing where its value lives (a table column, a staged
// literal, or a reusable intermediate slot), and each operator application
// appends its operator id plus a contiguous run of operand indices. A
// give/take slot allocator frees an operand's intermediate slot the moment
// its parent has recorded it, so the reported peak slot count is the true
// maximum number of simultaneously live temporaries - the fixed per-row
// buffer capacity the evaluator must provision.
//
// The produced Program is immutable and safe to share across any number of
// concurrent readers. It is rebuilt per query and has no persisted form.
package linearize
