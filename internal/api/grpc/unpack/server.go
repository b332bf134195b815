package unpack

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/electron-stager/internal/domain/stage"
	"github.com/oshokin/electron-stager/internal/logger"
)

// Unpacker is the local worker the transport layer serves.
type Unpacker interface {
	Unpack(ctx context.Context, req *stage.UnpackRequest) error
}

// Server implements UnpackServiceServer.
type Server struct {
	// unpacker does the actual work.
	unpacker Unpacker
}

// NewServer wires the provided unpacker into a gRPC handler.
func NewServer(unpacker Unpacker) *Server {
	return &Server{
		unpacker: unpacker,
	}
}

// Unpack decodes and validates the request, then runs the local unpacker.
func (s *Server) Unpack(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	req, err := fromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ctx = logger.WithKV(ctx, "output", req.Output)

	if err = s.unpacker.Unpack(ctx, req); err != nil {
		logger.ErrorKV(ctx, "Unpack failed", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	logger.InfoKV(ctx, "Unpacked electron", "configurations", len(req.Configuration))

	return new(emptypb.Empty), nil
}
