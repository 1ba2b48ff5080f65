package dedupe

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryClaimOnce(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ok, err := m.Claim(ctx, "r1:100", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	ok, _ = m.Claim(ctx, "r1:100", time.Minute)
	if ok {
		t.Fatal("second claim of the same key succeeded")
	}
	ok, _ = m.Claim(ctx, "r1:160", time.Minute)
	if !ok {
		t.Fatal("different key should be claimable")
	}
}

func TestMemoryClaimExpires(t *testing.T) {
	m := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := m.Claim(ctx, "k", time.Minute); !ok {
		t.Fatal("first claim failed")
	}
	now = now.Add(time.Minute)
	if ok, _ := m.Claim(ctx, "k", time.Minute); !ok {
		t.Fatal("claim should be available after ttl")
	}
}

func TestMemoryConcurrentClaims(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Claim(context.Background(), "same", time.Minute); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
