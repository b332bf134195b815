// Command electron-stager prepares Electron application stage directories.
package main

import "github.com/oshokin/electron-stager/cmd/electron-stager/cmd"

func main() {
	cmd.Execute()
}
