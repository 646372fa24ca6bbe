package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr, func() {
		client.Close()
		mr.Close()
	}
}

func TestNewLock_OwnerID(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	if NewLock(client, "instance-a").OwnerID() != "instance-a" {
		t.Error("expected explicit owner ID to be kept")
	}

	lock1 := NewLock(client, "")
	lock2 := NewLock(client, "")
	if lock1.OwnerID() == "" {
		t.Error("expected generated owner ID")
	}
	if lock1.OwnerID() == lock2.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", lock1.OwnerID())
	}
}

func TestLock_AcquireConversation(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client, "a")
	lock2 := NewLock(client, "b")
	ctx := context.Background()

	acquired, err := lock1.Acquire(ctx, "conversation:c1", 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected to acquire lock")
	}

	owner, err := mr.Get("concierge:lock:conversation:c1")
	if err != nil || owner != "a" {
		t.Errorf("expected key owned by a, got %q (%v)", owner, err)
	}

	// a second instance is refused, including the same owner (no reentrancy)
	if acquired, _ := lock2.Acquire(ctx, "conversation:c1", 30*time.Second); acquired {
		t.Error("expected second owner to be refused")
	}
	if acquired, _ := lock1.Acquire(ctx, "conversation:c1", 30*time.Second); acquired {
		t.Error("expected lock not to be reentrant")
	}

	// other conversations are independent
	if acquired, _ := lock2.Acquire(ctx, "conversation:c2", 30*time.Second); !acquired {
		t.Error("expected to acquire a different conversation")
	}
}

func TestLock_Expires(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client, "a")
	lock2 := NewLock(client, "b")
	ctx := context.Background()

	if _, err := lock1.Acquire(ctx, "conversation:c1", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if acquired, _ := lock2.Acquire(ctx, "conversation:c1", time.Second); !acquired {
		t.Error("expected lock to be free after TTL")
	}
}

func TestLock_Release(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client, "a")
	lock2 := NewLock(client, "b")
	ctx := context.Background()

	// releasing something not held is fine
	if err := lock1.Release(ctx, "conversation:c1"); err != nil {
		t.Errorf("unexpected error releasing unheld lock: %v", err)
	}

	if _, err := lock1.Acquire(ctx, "conversation:c1", 30*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// another owner cannot release it
	if err := lock2.Release(ctx, "conversation:c1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !mr.Exists("concierge:lock:conversation:c1") {
		t.Fatal("lock released by a different owner")
	}

	if err := lock1.Release(ctx, "conversation:c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists("concierge:lock:conversation:c1") {
		t.Error("expected lock key to be deleted")
	}
}

func TestLock_Extend(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client, "a")
	lock2 := NewLock(client, "b")
	ctx := context.Background()

	if err := lock1.Extend(ctx, "conversation:c1", 10*time.Second); err == nil {
		t.Error("expected error when extending unheld lock")
	}

	if _, err := lock1.Acquire(ctx, "conversation:c1", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := lock2.Extend(ctx, "conversation:c1", 20*time.Second); err == nil {
		t.Error("expected error when different owner tries to extend")
	}
	if err := lock1.Extend(ctx, "conversation:c1", 10*time.Second); err != nil {
		t.Fatalf("unexpected error on extend: %v", err)
	}
	if ttl := mr.TTL("concierge:lock:conversation:c1"); ttl != 10*time.Second {
		t.Errorf("expected TTL 10s, got %v", ttl)
	}
}

func TestLock_Ping(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client, "")
	if err := lock.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}

	mr.Close()
	if err := lock.Ping(context.Background()); err == nil {
		t.Error("expected ping error after server shutdown")
	}
}

func TestLock_Holder(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	a := NewLock(client, "instance-a")
	b := NewLock(client, "instance-b")

	holder, err := b.Holder(ctx, "conversation:42")
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}
	if holder != "" {
		t.Errorf("expected free lock, got holder %q", holder)
	}

	if ok, err := a.Acquire(ctx, "conversation:42", time.Minute); err != nil || !ok {
		t.Fatalf("Acquire = %v, %v", ok, err)
	}

	holder, err = b.Holder(ctx, "conversation:42")
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}
	if holder != "instance-a" {
		t.Errorf("expected instance-a to hold the lock, got %q", holder)
	}

	// b cannot release a's lock
	if err := b.Release(ctx, "conversation:42"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if holder, _ := b.Holder(ctx, "conversation:42"); holder != "instance-a" {
		t.Errorf("foreign release must not free the lock, holder = %q", holder)
	}
}
