package stager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/electron-stager/internal/api/grpc/unpack"
	"github.com/oshokin/electron-stager/internal/config"
	"github.com/oshokin/electron-stager/internal/service/electron"
)

// TestNewUnpacker builds the configured worker kind.
func TestNewUnpacker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	worker, closeWorker, err := NewUnpacker(ctx, config.Worker{Kind: config.WorkerCommand, Timeout: time.Minute})
	require.NoError(t, err)
	require.IsType(t, new(electron.CommandUnpacker), worker)
	require.NoError(t, closeWorker())

	worker, _, err = NewUnpacker(ctx, config.Worker{Kind: config.WorkerArchive})
	require.NoError(t, err)
	require.IsType(t, new(electron.ArchiveUnpacker), worker)

	worker, closeWorker, err = NewUnpacker(ctx, config.Worker{Kind: config.WorkerGRPC, Address: "127.0.0.1:1"})
	require.NoError(t, err)
	require.IsType(t, new(unpack.Client), worker)
	require.NoError(t, closeWorker())

	_, closeWorker, err = NewUnpacker(ctx, config.Worker{Kind: "ftp"})
	require.Error(t, err)
	require.NotNil(t, closeWorker)

	_, err = localUnpacker(config.WorkerGRPC, "", "", time.Minute)
	require.ErrorIs(t, err, errNestedGRPCWorker)
}
