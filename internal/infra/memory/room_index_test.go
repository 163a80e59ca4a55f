package memory

import (
	"context"
	"testing"
)

func TestRoomIndexLifecycle(t *testing.T) {
	ctx := context.Background()
	index := NewRoomIndex()

	ok, err := index.Claim(ctx, "ABC123")
	if err != nil || !ok {
		t.Fatalf("expected first claim to succeed, got ok=%v err=%v", ok, err)
	}
	if ok, _ := index.Claim(ctx, "ABC123"); ok {
		t.Fatalf("expected second claim to fail")
	}

	if err := index.Refresh(ctx, "ABC123"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := index.Release(ctx, "ABC123"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if index.Len() != 0 {
		t.Fatalf("expected name released, have %d", index.Len())
	}
	if ok, _ := index.Claim(ctx, "ABC123"); !ok {
		t.Fatalf("expected claim after release to succeed")
	}
}
