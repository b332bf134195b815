// Package integration holds end-to-end tests wiring the CLI services together.
package integration
