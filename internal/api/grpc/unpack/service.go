package unpack

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "electronstager.v1.UnpackService"
	// UnpackMethod is the full method name of the Unpack call.
	UnpackMethod = "/" + ServiceName + "/Unpack"
)

// UnpackServiceServer is the server API of the unpack service.
type UnpackServiceServer interface {
	Unpack(ctx context.Context, request *structpb.Struct) (*emptypb.Empty, error)
}

// ServiceDesc describes the unpack service for grpc.Server registration.
//
//nolint:gochecknoglobals // grpc.ServiceRegistrar takes a descriptor pointer.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UnpackServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Unpack",
			Handler:    unpackHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "electronstager/v1/unpack.proto",
}

// RegisterUnpackServiceServer registers srv on s.
func RegisterUnpackServiceServer(s grpc.ServiceRegistrar, srv UnpackServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unpackHandler(
	srv any,
	ctx context.Context, //nolint:revive // Argument order is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(UnpackServiceServer)
	if interceptor == nil {
		return server.Unpack(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: UnpackMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		request, _ := req.(*structpb.Struct)
		return server.Unpack(ctx, request)
	}

	return interceptor(ctx, in, info, handler)
}
