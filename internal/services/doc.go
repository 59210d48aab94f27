// Package services provides the error classification boundary shared by every
// collaborator client and pipeline stage, plus context annotations that carry
// item and stage identity into structured logs.
//
// Every failure that can abort a run is tagged with exactly one sentinel
// marker so the CLI can map it to a stable exit code.
package services
