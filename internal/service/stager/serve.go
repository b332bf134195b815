package stager

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/oshokin/electron-stager/internal/api/grpc/unpack"
	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/logger"
)

// DefaultListenAddress is where Serve listens unless overridden.
// The worker trusts request output paths, so it stays on loopback by default.
const DefaultListenAddress = "127.0.0.1:7410"

// ServeOptions controls the unpack worker server.
type ServeOptions struct {
	// ListenAddress is a host:port or :port to listen on.
	ListenAddress string
	// Kind is the local worker served: "archive" (default) or "command".
	Kind string
	// Executable is the worker binary for the command kind.
	Executable string
	// CacheDir is the archive cache for the archive kind.
	CacheDir string
	// Timeout bounds one command worker run.
	Timeout time.Duration
}

func (o *ServeOptions) listenAddress() string {
	if o.ListenAddress == "" {
		return DefaultListenAddress
	}

	return o.ListenAddress
}

// Serve exposes a local unpack worker over gRPC and blocks until ctx is
// canceled or the server stops.
func Serve(ctx context.Context, opts *ServeOptions) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "serve")

	listenAddress := opts.listenAddress()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultWorkerTimeout
	}

	worker, err := localUnpacker(opts.Kind, opts.Executable, opts.CacheDir, timeout)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	return serve(ctx, lis, worker)
}

// serve runs the gRPC server on lis until ctx is done.
func serve(ctx context.Context, lis net.Listener, worker unpack.Unpacker) error {
	grpcServer := grpc.NewServer()
	unpack.RegisterUnpackServiceServer(grpcServer, unpack.NewServer(worker))

	logger.InfoKV(ctx, "Unpack worker listening", "listen_address", lis.Addr().String())

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}
