package unpack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/version"
)

// DefaultCallTimeout bounds one Unpack call unless overridden.
const DefaultCallTimeout = 10 * time.Minute

// Client calls a remote unpack worker.
type Client struct {
	// conn is the underlying gRPC connection to the worker.
	conn *grpc.ClientConn
	// target is the dialed address, used in error messages.
	target string
	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// dialOptions are appended to the defaults.
	dialOptions []grpc.DialOption
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithDialOptions appends gRPC dial options (custom dialers in tests).
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

// errAddressRequired is returned when the worker address is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial creates a client for the worker at address.
// Note: this uses insecure transport credentials; run workers on a trusted
// network or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		target:      address,
		callTimeout: DefaultCallTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent()),
	}, client.dialOptions...)

	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial unpack worker: %w", err)
	}

	client.conn = conn

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Unpack sends req to the worker and waits for it to finish.
func (c *Client) Unpack(ctx context.Context, req *stage.UnpackRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid unpack request: %w", err)
	}

	in, err := toStruct(req)
	if err != nil {
		return err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err = c.conn.Invoke(callCtx, UnpackMethod, in, new(emptypb.Empty)); err != nil {
		return fmt.Errorf("unpack via %s: %w", c.target, err)
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
