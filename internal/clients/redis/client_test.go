package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

func TestNewClientFromURLAndAddr(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	c, err := NewClient(ctx, Config{URL: "redis://" + s.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient(url): %v", err)
	}
	_ = c.Close()

	c, err = NewClient(ctx, Config{Addr: s.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient(addr): %v", err)
	}
	_ = c.Close()
}

func TestNewClientRequiresTarget(t *testing.T) {
	if _, err := NewClient(context.Background(), Config{}, logger.Nop()); err == nil {
		t.Fatalf("expected error without url or addr")
	}
}
