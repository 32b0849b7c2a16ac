package grpcx

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fieldcrew/opsuite/libs/httpx"
)

// RequestIDMetadataKey carries the request id over gRPC metadata.
const RequestIDMetadataKey = "x-request-id"

// UnaryServerRequestIDInterceptor adopts the caller's request id or mints
// one, echoes it in the response header and stores it where
// httpx.RequestIDFromContext finds it, so both transports log the same key.
func UnaryServerRequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var incoming string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(RequestIDMetadataKey); len(vals) > 0 {
				incoming = vals[0]
			}
		}
		id := httpx.RequestIDOr(incoming)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDMetadataKey, id))
		return handler(httpx.ContextWithRequestID(ctx, id), req)
	}
}

// UnaryServerLogInterceptor logs every call with its status code, mirroring
// the HTTP access log.
func UnaryServerLogInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "grpc request",
			"request_id", httpx.RequestIDFromContext(ctx),
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
