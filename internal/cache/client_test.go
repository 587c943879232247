package cache

import (
	"context"
	"testing"
	"time"
)

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewClient(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected a connection error")
	}
}
