// Package config loads the YAML build configuration of electron-stager and
// fills derived defaults (product filename, executable name, worker settings).
package config
