// Package taskrunner executes labelled tasks on a fixed pool of goroutines.
//
// A failing or panicking task is recorded under its label and never stops
// its siblings. Run blocks until every task has finished and returns only
// the failures.
package taskrunner
