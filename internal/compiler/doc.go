// Package compiler parses CUE expression specs into an expression tree and
// its table schemas.
//
// A spec declares the typed columns of one or two input tables and an
// expression over them:
//
//	tables: left: columns: [
//		{name: "price", type: "int32"},
//		{name: "qty", type: "int32"},
//	]
//	expression: {
//		op: "mul"
//		args: [
//			{op: "add", args: [{column: 0}, {column: 1}]},
//			{literal: 2, type: "int32"},
//		]
//	}
//
// Node forms: {column: <index>, table?: "left"|"right"} references a
// column (left by default); {literal: <scalar>, type?: <name>} declares a
// literal; {op: <name>, args: [...]} applies an operator. Compilation
// checks structure only - operator arity and type promotion are validated
// later by the linearizer against its catalog.
package compiler
