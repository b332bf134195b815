// Package npm reads the project manifest (package.json) and the metadata of
// installed Electron packages under node_modules.
package npm
