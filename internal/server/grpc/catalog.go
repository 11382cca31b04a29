package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/luminary-catalog/luminary/internal/server/auth"
	"github.com/luminary-catalog/luminary/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ListGenresMethod = "/" + ServiceName + "/ListGenres"
	GetGenreMethod   = "/" + ServiceName + "/GetGenre"
)

// GenreReader is the genre behaviour exposed over gRPC.
type GenreReader interface {
	List(ctx context.Context) ([]models.Genre, error)
	Get(ctx context.Context, id string) (*models.Genre, error)
}

// CatalogServer is the server API for the luminary.Catalog service. Genres
// travel as google.protobuf.Struct values with the same fields as the REST
// representation.
type CatalogServer interface {
	ListGenres(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetGenre(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterCatalogServer registers srv on s.
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListGenres", Handler: listGenresHandler},
		{MethodName: "GetGenre", Handler: getGenreHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "luminary/catalog.proto",
}

func listGenresHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListGenres(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListGenresMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).ListGenres(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getGenreHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetGenre(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetGenreMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).GetGenre(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

type catalogServer struct {
	genres GenreReader
	logger logging.Logger
}

func (s *catalogServer) ListGenres(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	if _, ok := auth.IdentityFromContext(ctx); !ok {
		return nil, status.Error(codes.Unauthenticated, auth.MsgInvalidToken)
	}

	genres, err := s.genres.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list genres", err)
	}

	values := make([]*structpb.Value, 0, len(genres))
	for i := range genres {
		g, err := genreStruct(&genres[i])
		if err != nil {
			return nil, s.fail(ctx, "encode genre", err)
		}
		values = append(values, structpb.NewStructValue(g))
	}

	return &structpb.ListValue{Values: values}, nil
}

func (s *catalogServer) GetGenre(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if _, ok := auth.IdentityFromContext(ctx); !ok {
		return nil, status.Error(codes.Unauthenticated, auth.MsgInvalidToken)
	}

	id := in.GetValue()
	if _, err := uuid.Parse(id); err != nil {
		return nil, status.Error(codes.NotFound, "Genre not found")
	}

	g, err := s.genres.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, status.Error(codes.NotFound, "Genre not found")
		}
		return nil, s.fail(ctx, "get genre", err)
	}

	out, err := genreStruct(g)
	if err != nil {
		return nil, s.fail(ctx, "encode genre", err)
	}
	return out, nil
}

func (s *catalogServer) fail(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "catalog rpc failed", "op", op, "error", err)
	return status.Error(codes.Internal, "Internal server error")
}

func genreStruct(g *models.Genre) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"id":          g.ID,
		"name":        g.Name,
		"description": g.Description,
		"createdAt":   g.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}
