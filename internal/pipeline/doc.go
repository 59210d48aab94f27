// Package pipeline drives work items through the fixed stage chain.
//
// Each item is processed inside its own execution scope: the runner opens
// the scope, runs the stages in order, and releases the scope on every exit
// path. The batch loop sits above the runner and owns progress reporting,
// run history, and the failure policy (fail fast by default, or record and
// continue when configured).
package pipeline
