package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ExtractorServiceName     = "invoices.v1.InvoiceExtractor"
	extractInvoiceMethod     = "ExtractInvoice"
	ExtractInvoiceFullMethod = "/" + ExtractorServiceName + "/" + extractInvoiceMethod
)

// ExtractorServer is the server side of invoices.v1.InvoiceExtractor.
type ExtractorServer interface {
	ExtractInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterExtractorServer attaches srv to s.
func RegisterExtractorServer(s grpc.ServiceRegistrar, srv ExtractorServer) {
	s.RegisterService(&ExtractorServiceDesc, srv)
}

func extractInvoiceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ExtractorServer).ExtractInvoice(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ExtractInvoiceFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ExtractorServer).ExtractInvoice(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ExtractorServiceDesc is written by hand; the messages are well-known Struct types so
// no generated code is needed.
var ExtractorServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractorServiceName,
	HandlerType: (*ExtractorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: extractInvoiceMethod,
			Handler:    extractInvoiceHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "invoices/v1/extractor.proto",
}

// ExtractorClient is the client side of invoices.v1.InvoiceExtractor.
type ExtractorClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractorClient(cc grpc.ClientConnInterface) *ExtractorClient {
	return &ExtractorClient{cc: cc}
}

func (c *ExtractorClient) ExtractInvoice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ExtractInvoiceFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
