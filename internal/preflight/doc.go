// Package preflight provides readiness checks for the external tools and
// filesystem paths a batch run depends on.
//
// The run command executes RunAll once before opening any sandbox. A failed
// required check stops the run before work begins, so a missing binary or an
// unwritable scratch root is reported in seconds instead of surfacing halfway
// through a long batch.
package preflight
