package grpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer builds a grpc.Server with tracing, request logging and token
// auth, and registers srv on it
func NewGRPCServer(apiToken string, srv PriceWatchServer) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RequestLogInterceptor(),
			AuthInterceptor(apiToken),
		),
	)

	RegisterPriceWatchServer(grpcServer, srv)
	reflection.Register(grpcServer)

	return grpcServer
}
