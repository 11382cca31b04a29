package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// publicPrefix marks methods callable without a token.
const publicPrefix = "/grpc.health.v1.Health/"

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if strings.HasPrefix(info.FullMethod, publicPrefix) {
		return handler(ctx, req)
	}

	var values []string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values = md.Get(common.AuthorizationMetadataKey)
	}

	token, err := auth.ParseBearerValues(values)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, auth.RejectionMessage(err))
	}

	identity, err := s.verifier.Verify(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "method", info.FullMethod, "expired", errors.Is(err, common.ErrTokenExpired))
		return nil, status.Error(codes.Unauthenticated, auth.MsgInvalidToken)
	}

	return handler(auth.WithIdentity(ctx, identity), req)
}
