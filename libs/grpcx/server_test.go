package grpcx

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/fieldcrew/opsuite/libs/httpx"
)

func TestServerRequestIDInterceptorUsesIncomingMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-7"))
	var seen string
	_, err := UnaryServerRequestIDInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(ctx context.Context, _ any) (any, error) {
			seen = httpx.RequestIDFromContext(ctx)
			return nil, nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "req-7" {
		t.Fatalf("expected req-7, got %q", seen)
	}
}

func TestNewServerRegistersHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, hs := NewServer(logger)
	defer srv.Stop()
	if hs == nil {
		t.Fatal("expected health server")
	}
	if _, ok := srv.GetServiceInfo()["grpc.health.v1.Health"]; !ok {
		t.Fatal("health service not registered")
	}
}
