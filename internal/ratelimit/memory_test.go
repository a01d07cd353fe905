package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowsUpToLimit(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d: expected allowed", i+1)
		}
		if want := int64(3 - i - 1); result.Remaining != want {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, want, result.Remaining)
		}
	}

	result, err := limiter.Allow(ctx, "user-1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if result.Allowed {
		t.Fatal("expected request over the limit to be denied")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Errorf("unexpected retry-after %s", result.RetryAfter)
	}
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(1, time.Minute)
	limiter.now = func() time.Time { return now }

	if result, _ := limiter.Allow(ctx, "user-1"); !result.Allowed {
		t.Fatal("first request should be allowed")
	}
	if result, _ := limiter.Allow(ctx, "user-1"); result.Allowed {
		t.Fatal("second request inside the window should be denied")
	}

	// Just before the boundary the counter still holds.
	now = now.Add(time.Minute - time.Millisecond)
	if result, _ := limiter.Allow(ctx, "user-1"); result.Allowed {
		t.Fatal("request just inside the window should be denied")
	}

	// At the boundary a fresh window starts.
	now = now.Add(time.Millisecond)
	if result, _ := limiter.Allow(ctx, "user-1"); !result.Allowed {
		t.Fatal("request after the window elapsed should be allowed")
	}
}

func TestMemoryLimiter_IndependentKeys(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(1, time.Minute)

	if result, _ := limiter.Allow(ctx, "user-1"); !result.Allowed {
		t.Fatal("user-1 should be allowed")
	}
	if result, _ := limiter.Allow(ctx, "user-1"); result.Allowed {
		t.Fatal("user-1 should be denied on the second request")
	}
	if result, _ := limiter.Allow(ctx, "user-2"); !result.Allowed {
		t.Fatal("user-2 should have an independent counter")
	}
}

func TestNewMemoryLimiter_Defaults(t *testing.T) {
	limiter := NewMemoryLimiter(0, 0)
	if limiter.limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, limiter.limit)
	}
	if limiter.size != DefaultWindow {
		t.Errorf("expected default window %s, got %s", DefaultWindow, limiter.size)
	}
}
