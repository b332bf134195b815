// Package stager runs the stage pipeline for the CLI.
//
// Prepare loads the configuration, picks an unpack worker and prepares one
// stage directory per requested platform in parallel. Hook runs the
// pre-extra-files step on stages prepared earlier, and Serve exposes a local
// unpack worker over gRPC for remote stagers.
package stager
