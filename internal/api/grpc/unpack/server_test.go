package unpack

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/electron-stager/internal/domain/stage"
)

// fakeUnpacker records the requests the server hands over.
type fakeUnpacker struct {
	mu       sync.Mutex
	requests []*stage.UnpackRequest
	err      error
}

func (f *fakeUnpacker) Unpack(_ context.Context, req *stage.UnpackRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)

	return f.err
}

func testRequest() *stage.UnpackRequest {
	verify := false

	return &stage.UnpackRequest{
		Action: stage.ActionUnpackElectron,
		Configuration: []stage.DownloadOptions{{
			Platform:         stage.PlatformDarwin,
			Arch:             "arm64",
			Version:          "30.1.2",
			Cache:            "/cache/electron",
			IsVerifyChecksum: &verify,
		}},
		Output:           "/stage/mac-arm64",
		DistMacOsAppName: "Brand.app",
	}
}

// startServer serves unpacker over an in-memory listener and returns a connected client.
func startServer(t *testing.T, unpacker Unpacker) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterUnpackServiceServer(server, NewServer(unpacker))

	go func() {
		_ = server.Serve(lis)
	}()

	t.Cleanup(server.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}

	client, err := Dial(context.Background(), "passthrough:///bufnet",
		WithCallTimeout(5*time.Second),
		WithDialOptions(grpc.WithContextDialer(dialer)))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// TestServer_Validation ensures malformed requests return InvalidArgument.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	unpacker := new(fakeUnpacker)
	s := NewServer(unpacker)

	_, err := s.Unpack(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	bad, err := structpb.NewStruct(map[string]any{"action": "unpack-other", "output": "/out"})
	require.NoError(t, err)

	_, err = s.Unpack(context.Background(), bad)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	require.Empty(t, unpacker.requests)
}

// TestServer_UnpackFailure maps worker failures to Internal.
func TestServer_UnpackFailure(t *testing.T) {
	t.Parallel()

	in, err := toStruct(testRequest())
	require.NoError(t, err)

	_, err = NewServer(&fakeUnpacker{err: errors.New("disk full")}).Unpack(context.Background(), in)
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestRoundtrip delivers the request unchanged to the served unpacker.
func TestRoundtrip(t *testing.T) {
	t.Parallel()

	unpacker := new(fakeUnpacker)
	client := startServer(t, unpacker)

	require.NoError(t, client.Unpack(context.Background(), testRequest()))
	require.Len(t, unpacker.requests, 1)
	require.Equal(t, testRequest(), unpacker.requests[0])
}

// TestRoundtrip_RemoteFailure surfaces the remote status code.
func TestRoundtrip_RemoteFailure(t *testing.T) {
	t.Parallel()

	client := startServer(t, &fakeUnpacker{err: errors.New("exit status 1")})

	err := client.Unpack(context.Background(), testRequest())
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
}
