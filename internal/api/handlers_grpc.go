package api

import (
	"context"
	"strings"

	"homebooking/internal/derive"
	"homebooking/internal/service"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// CatalogService serves the read-only catalog over gRPC.
type CatalogService struct {
	catalog  *service.CatalogService
	bookings *service.BookingService
}

func NewCatalogService(catalog *service.CatalogService, bookings *service.BookingService) *CatalogService {
	return &CatalogService{catalog: catalog, bookings: bookings}
}

func (s *CatalogService) ListServices(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter := derive.ServiceFilter{
		Search:          stringField(req, "search"),
		CategoryID:      stringField(req, "category"),
		PriceRange:      stringField(req, "price"),
		Sort:            derive.SortMode(stringField(req, "sort")),
		IncludeInactive: req.GetFields()["include_inactive"].GetBoolValue(),
	}
	services := s.catalog.ListServices(filter)
	out, err := toStruct(map[string]any{"services": services, "total": len(services)})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode services")
	}
	return out, nil
}

func (s *CatalogService) GetService(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	svc, err := s.catalog.GetService(id)
	if err != nil {
		return nil, grpcError(err)
	}
	out, err := toStruct(svc)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode service")
	}
	return out, nil
}

func (s *CatalogService) GetAvailableSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date := stringField(req, "date")
	if date == "" {
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}

	slots, err := s.bookings.AvailableSlots(date)
	if err != nil {
		return nil, grpcError(err)
	}
	out, err := toStruct(map[string]any{"date": date, "slots": slots})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode slots")
	}
	return out, nil
}

func (s *CatalogService) GetAdminStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	stats := s.bookings.AdminStats()
	out, err := toStruct(map[string]any{
		"stats":               stats,
		"averageBookingValue": derive.AverageBookingValue(stats),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "encode stats")
	}
	return out, nil
}

func stringField(req *structpb.Struct, name string) string {
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}
