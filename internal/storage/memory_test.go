package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemorySlotLifecycle(t *testing.T) {
	slot := NewMemorySlot()
	ctx := context.Background()

	if _, err := slot.Read(ctx); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
	if err := slot.Write(ctx, []byte("payload"), "origin-a"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	payload, err := slot.Read(ctx)
	if err != nil || string(payload) != "payload" {
		t.Fatalf("unexpected read: %s err=%v", payload, err)
	}
	if err := slot.Delete(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := slot.Read(ctx); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound after delete, got %v", err)
	}
}

func TestMemorySlotWatch(t *testing.T) {
	slot := NewMemorySlot()
	ctx := context.Background()

	var origins []string
	cancel, err := slot.Watch(ctx, func(origin string) {
		origins = append(origins, origin)
	})
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	if err := slot.Write(ctx, []byte("x"), "origin-a"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := slot.Delete(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(origins) != 2 || origins[0] != "origin-a" || origins[1] != "" {
		t.Fatalf("unexpected notifications: %v", origins)
	}

	cancel()
	if err := slot.Write(ctx, []byte("y"), "origin-b"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if len(origins) != 2 {
		t.Fatalf("cancelled watcher still notified: %v", origins)
	}
}
