// Package harness runs YAML-defined conformance scenarios against the
// compiler, linearizer, and evaluator, comparing deterministic snapshots
// of the compiled program and evaluation result against golden files.
//
// A scenario names a CUE expression spec, provides inline input columns
// for the spec's tables, and optionally pins expectations on the compiled
// program. Golden files live in testdata/golden and are regenerated with
// go test -update.
package harness
