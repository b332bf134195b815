package electron

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

// Unpacker populates a stage directory with the runtime described by a request.
type Unpacker interface {
	Unpack(ctx context.Context, req *stage.UnpackRequest) error
}

// CommandUnpacker runs an external worker binary:
//
//	<worker> unpack-electron --configuration <json> --output <dir> --distMacOsAppName <name>
type CommandUnpacker struct {
	// executable is the worker binary name or path.
	executable string
	// timeout bounds one worker run; zero means no bound.
	timeout time.Duration
}

// NewCommandUnpacker creates an unpacker that shells out to executable.
func NewCommandUnpacker(executable string, timeout time.Duration) *CommandUnpacker {
	return &CommandUnpacker{
		executable: executable,
		timeout:    timeout,
	}
}

// Args renders the worker command line for req.
func (u *CommandUnpacker) Args(req *stage.UnpackRequest) ([]string, error) {
	configuration, err := json.Marshal(req.Configuration)
	if err != nil {
		return nil, fmt.Errorf("encode download options: %w", err)
	}

	return []string{
		req.Action,
		"--configuration", string(configuration),
		"--output", req.Output,
		"--distMacOsAppName", req.DistMacOsAppName,
	}, nil
}

// Unpack runs the worker and fails on a non-zero exit, quoting its stderr.
func (u *CommandUnpacker) Unpack(ctx context.Context, req *stage.UnpackRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid unpack request: %w", err)
	}

	args, err := u.Args(req)
	if err != nil {
		return err
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, u.executable, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.DebugKV(ctx, "Running unpack worker", "executable", u.executable, "args", args)

	if err = cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s %s: %w: %s",
			errWorkerFailed, u.executable, req.Action, err, strings.TrimSpace(stderr.String()))
	}

	if out := strings.TrimSpace(stdout.String()); out != "" {
		logger.DebugKV(ctx, "Unpack worker output", "output", out)
	}

	return nil
}
