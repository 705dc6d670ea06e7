package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "hashcash.v1.HashcashService"

// HashcashServiceServer is the server API for HashcashService.
type HashcashServiceServer interface {
	Threshold(context.Context, *ThresholdRequest) (*ThresholdResponse, error)
	Solve(context.Context, *SolveRequest) (*SolveResponse, error)
	Verify(context.Context, *VerifyRequest) (*VerifyResponse, error)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryMethod[Req, Resp any](
	name string,
	call func(HashcashServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	handler := func(
		srv any,
		ctx context.Context,
		dec func(any) error,
		interceptor grpc.UnaryServerInterceptor,
	) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, status.Error(codes.InvalidArgument, status.Convert(err).Message())
		}
		if interceptor == nil {
			return call(srv.(HashcashServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(name),
		}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(HashcashServiceServer), ctx, req.(*Req))
		})
	}
	return grpc.MethodDesc{MethodName: name, Handler: handler}
}

var HashcashServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HashcashServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Threshold", HashcashServiceServer.Threshold),
		unaryMethod("Solve", HashcashServiceServer.Solve),
		unaryMethod("Verify", HashcashServiceServer.Verify),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hashcash/v1/hashcash.proto",
}

func RegisterHashcashServiceServer(s grpc.ServiceRegistrar, srv HashcashServiceServer) {
	s.RegisterService(&HashcashServiceDesc, srv)
}

// HashcashServiceClient is the client API for HashcashService.
type HashcashServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewHashcashServiceClient(cc grpc.ClientConnInterface) *HashcashServiceClient {
	return &HashcashServiceClient{cc: cc}
}

func (c *HashcashServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, fullMethod(method), in, out, opts...)
}

func (c *HashcashServiceClient) Threshold(
	ctx context.Context,
	in *ThresholdRequest,
	opts ...grpc.CallOption,
) (*ThresholdResponse, error) {
	out := new(ThresholdResponse)
	if err := c.invoke(ctx, "Threshold", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HashcashServiceClient) Solve(
	ctx context.Context,
	in *SolveRequest,
	opts ...grpc.CallOption,
) (*SolveResponse, error) {
	out := new(SolveResponse)
	if err := c.invoke(ctx, "Solve", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HashcashServiceClient) Verify(
	ctx context.Context,
	in *VerifyRequest,
	opts ...grpc.CallOption,
) (*VerifyResponse, error) {
	out := new(VerifyResponse)
	if err := c.invoke(ctx, "Verify", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
