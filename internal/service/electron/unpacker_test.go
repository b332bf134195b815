package electron

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/electron-stager/internal/domain/stage"
)

// TestCommandUnpackerArgs renders the worker protocol.
func TestCommandUnpackerArgs(t *testing.T) {
	t.Parallel()

	opts := stage.DownloadOptions{Platform: stage.PlatformWindows, Arch: "x64", Version: "30.1.2", Mirror: "https://m/"}
	args, err := NewCommandUnpacker("app-builder", 0).Args(unpackRequest("/out", opts, "Electron.app"))
	require.NoError(t, err)
	require.Len(t, args, 7)
	require.Equal(t, stage.ActionUnpackElectron, args[0])
	require.Equal(t, []string{"--output", "/out", "--distMacOsAppName", "Electron.app"}, args[3:])

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(args[2]), &decoded))
	require.Equal(t, []map[string]any{{
		"platform": "win32",
		"arch":     "x64",
		"version":  "30.1.2",
		"mirror":   "https://m/",
	}}, decoded)
}

// TestCommandUnpackerRun invokes a worker script and reports its failures.
func TestCommandUnpackerRun(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("worker script needs a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "worker.sh")
	contents := strings.Join([]string{
		"#!/bin/sh",
		`[ "$1" = "unpack-electron" ] || { echo "bad action $1" >&2; exit 3; }`,
		`mkdir -p "$5" && echo "$3" > "$5/configuration.json"`,
	}, "\n")
	require.NoError(t, os.WriteFile(script, []byte(contents), 0o700))

	out := filepath.Join(dir, "out")
	opts := stage.DownloadOptions{Platform: stage.PlatformLinux, Arch: "x64", Version: "30.1.2"}
	unpacker := NewCommandUnpacker(script, time.Minute)

	require.NoError(t, unpacker.Unpack(context.Background(), unpackRequest(out, opts, "Electron.app")))
	requireExists(t, filepath.Join(out, "configuration.json"))

	failing := NewCommandUnpacker(filepath.Join(dir, "missing-worker"), time.Minute)
	err := failing.Unpack(context.Background(), unpackRequest(out, opts, "Electron.app"))
	require.ErrorIs(t, err, errWorkerFailed)

	req := unpackRequest(out, opts, "Electron.app")
	req.Action = "unpack-other"
	require.Error(t, unpacker.Unpack(context.Background(), req))
}
