// Package store loads columnar test tables from SQLite for the CLI eval
// command and integration tests.
//
// The store reflects a table's declared column types into a schema and
// reads its rows into in-memory column vectors. Rows are always read in
// rowid order so that repeated loads of the same database produce the same
// table, which keeps golden comparisons deterministic. The store is a data
// source only: compiled programs are never persisted.
package store
