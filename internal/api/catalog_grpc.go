package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// The catalog surface is described by hand: requests and responses are
// structpb.Struct values, so no generated stubs are involved.
const (
	catalogServiceName = "homebooking.catalog.v1.CatalogService"

	methodListServices      = "/" + catalogServiceName + "/ListServices"
	methodGetService        = "/" + catalogServiceName + "/GetService"
	methodGetAvailableSlots = "/" + catalogServiceName + "/GetAvailableSlots"
	methodGetAdminStats     = "/" + catalogServiceName + "/GetAdminStats"
)

type CatalogServer interface {
	ListServices(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetService(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAvailableSlots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAdminStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: catalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListServices", Handler: unaryHandler(methodListServices, CatalogServer.ListServices)},
		{MethodName: "GetService", Handler: unaryHandler(methodGetService, CatalogServer.GetService)},
		{MethodName: "GetAvailableSlots", Handler: unaryHandler(methodGetAvailableSlots, CatalogServer.GetAvailableSlots)},
		{MethodName: "GetAdminStats", Handler: unaryHandler(methodGetAdminStats, CatalogServer.GetAdminStats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "homebooking/catalog/v1/catalog.proto",
}

type catalogMethod func(CatalogServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call catalogMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CatalogClient calls the catalog service over conn.
type CatalogClient struct {
	conn grpc.ClientConnInterface
}

func NewCatalogClient(conn grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{conn: conn}
}

func (c *CatalogClient) call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) ListServices(ctx context.Context, filter map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodListServices, filter, opts...)
}

func (c *CatalogClient) GetService(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodGetService, map[string]any{"id": id}, opts...)
}

func (c *CatalogClient) GetAvailableSlots(ctx context.Context, date string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodGetAvailableSlots, map[string]any{"date": date}, opts...)
}

func (c *CatalogClient) GetAdminStats(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodGetAdminStats, nil, opts...)
}

// toStruct converts a JSON-tagged value into a Struct through its JSON form,
// so gRPC clients see the same field names as the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("value is not an object: %w", err)
	}
	return structpb.NewStruct(m)
}
