package stager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/electron-stager/internal/api/grpc/unpack"
	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/service/electron"
)

// errNestedGRPCWorker is returned when a served worker would call another server.
var errNestedGRPCWorker = errors.New("a served worker cannot be a grpc worker")

// NewUnpacker builds the worker selected by w. The returned close func
// releases its connection, if any, and is never nil.
func NewUnpacker(ctx context.Context, w config.Worker) (electron.Unpacker, func() error, error) {
	noop := func() error { return nil }

	switch w.Kind {
	case config.WorkerCommand, "":
		executable := w.Executable
		if executable == "" {
			executable = config.DefaultWorkerExecutable
		}

		return electron.NewCommandUnpacker(executable, w.Timeout), noop, nil
	case config.WorkerArchive:
		return electron.NewArchiveUnpacker(""), noop, nil
	case config.WorkerGRPC:
		client, err := unpack.Dial(ctx, w.Address, unpack.WithCallTimeout(w.Timeout))
		if err != nil {
			return nil, noop, err
		}

		return client, client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown worker kind %q", w.Kind)
	}
}

// localUnpacker builds a worker that runs in this process or on this host.
func localUnpacker(kind, executable, cacheDir string, timeout time.Duration) (electron.Unpacker, error) {
	switch kind {
	case config.WorkerArchive, "":
		return electron.NewArchiveUnpacker(cacheDir), nil
	case config.WorkerCommand:
		if executable == "" {
			executable = config.DefaultWorkerExecutable
		}

		return electron.NewCommandUnpacker(executable, timeout), nil
	case config.WorkerGRPC:
		return nil, errNestedGRPCWorker
	default:
		return nil, fmt.Errorf("unknown worker kind %q", kind)
	}
}
