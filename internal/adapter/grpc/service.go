package grpc

import (
	"context"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the price watch service
const ServiceName = "pricewatch.v1.PriceWatchService"

// Method names of the price watch service
const (
	MethodCreateUser            = "CreateUser"
	MethodAddTrackedItem        = "AddTrackedItem"
	MethodListTrackedItems      = "ListTrackedItems"
	MethodDeactivateTrackedItem = "DeactivateTrackedItem"
	MethodAddRule               = "AddRule"
	MethodDisableRule           = "DisableRule"
	MethodRunCycle              = "RunCycle"
	MethodListAlerts            = "ListAlerts"
)

// PriceWatchServer is the server API of the price watch service.
// Every request and response is a google.protobuf.Struct.
type PriceWatchServer interface {
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddTrackedItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTrackedItems(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeactivateTrackedItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DisableRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunCycle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAlerts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PriceWatchServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes the price watch service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PriceWatchServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodCreateUser, PriceWatchServer.CreateUser),
		unary(MethodAddTrackedItem, PriceWatchServer.AddTrackedItem),
		unary(MethodListTrackedItems, PriceWatchServer.ListTrackedItems),
		unary(MethodDeactivateTrackedItem, PriceWatchServer.DeactivateTrackedItem),
		unary(MethodAddRule, PriceWatchServer.AddRule),
		unary(MethodDisableRule, PriceWatchServer.DisableRule),
		unary(MethodRunCycle, PriceWatchServer.RunCycle),
		unary(MethodListAlerts, PriceWatchServer.ListAlerts),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricewatch/v1/pricewatch.proto",
}

// RegisterPriceWatchServer registers the service implementation on s
func RegisterPriceWatchServer(s grpc.ServiceRegistrar, srv PriceWatchServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the wire name of a method, e.g. "/pricewatch.v1.PriceWatchService/RunCycle"
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary(method string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PriceWatchServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PriceWatchServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls the price watch service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on an existing connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with the given request fields and returns the response fields
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// DefaultClientDialOptions returns the dial options used by the CLI: plain
// text transport, the bearer token on every call and OTel propagation.
func DefaultClientDialOptions(token string) []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(tokenCredentials(token)),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// tokenCredentials sends the API token in the authorization metadata
type tokenCredentials string

func (t tokenCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": string(t)}, nil
}

func (t tokenCredentials) RequireTransportSecurity() bool {
	return false
}
