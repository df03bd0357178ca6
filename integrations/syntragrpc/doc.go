// Package syntragrpc instruments gRPC servers and clients with unary
// interceptors.
//
//	server := grpc.NewServer(
//		grpc.UnaryInterceptor(syntragrpc.UnaryServerInterceptor(syntragrpc.Options{})),
//	)
//
//	conn, err := grpc.NewClient(target,
//		grpc.WithUnaryInterceptor(syntragrpc.UnaryClientInterceptor(syntragrpc.Options{})),
//	)
//
// The server interceptor continues traces from the traceparent
// metadata key, isolates a scope per call, and captures handler errors
// and panics. The client interceptor starts a client span and injects
// the traceparent key into outgoing metadata.
package syntragrpc
