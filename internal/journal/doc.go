// Package journal records mirror runs and their task outcomes in SQLite so
// the history command can show what previous runs did.
//
// The database lives at <state_dir>/journal.db. Writes from concurrent
// workers are serialized through a single connection.
package journal
