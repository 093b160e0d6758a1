package ratelimit

import (
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("vendor-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("vendor-1") {
		t.Fatalf("fourth request should be blocked")
	}

	// Separate keys have separate buckets
	if !l.Allow("vendor-2") {
		t.Fatalf("other vendor should not be affected")
	}
}

func TestAllowWindowSlides(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	defer l.Stop()

	if !l.Allow("vendor-1") {
		t.Fatalf("first request should pass")
	}
	if l.Allow("vendor-1") {
		t.Fatalf("second request inside window should block")
	}

	time.Sleep(60 * time.Millisecond)
	if !l.Allow("vendor-1") {
		t.Fatalf("request after window should pass")
	}
}

func TestAllowStrictIsSeparate(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	defer l.Stop()

	if !l.AllowStrict("1.2.3.4", 1, time.Minute) {
		t.Fatalf("first strict request should pass")
	}
	if l.AllowStrict("1.2.3.4", 1, time.Minute) {
		t.Fatalf("second strict request should block")
	}

	// The generous default bucket is untouched
	if !l.Allow("1.2.3.4") {
		t.Fatalf("default bucket should still allow")
	}
}

func TestStopEndsCleanupGoroutine(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	l.Stop()
	select {
	case <-l.done:
	default:
		t.Fatalf("expected done channel closed after Stop")
	}

	// A second Stop must not panic, and the limiter stays usable
	l.Stop()
	if !l.Allow("vendor-1") {
		t.Fatalf("limiter should still answer after Stop")
	}
}

func TestAllowEmptyKey(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if !l.Allow("") {
			t.Fatalf("empty key should never be limited")
		}
	}
}
