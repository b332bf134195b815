// Package stage contains the domain types of Electron stage preparation.
//
// It defines the closed set of target platforms, the download options passed
// to unpack workers, the per-target PrepareContext, and the explicit outcome
// types (AcquisitionOutcome, CleanupResult) that replace silently swallowed
// errors in the pipeline.
package stage
