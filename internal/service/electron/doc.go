// Package electron turns an Electron runtime distribution into a branded
// application stage directory.
//
// The Framework resolves the runtime version and branding once per build,
// then for every target acquires the runtime (an unpack worker or a local
// copy), runs the cleanup that matches the acquisition path, and later
// applies the per-platform pre-extra-files hook (executable rename on
// Linux/Windows, bundle construction and locale pruning on macOS).
package electron
