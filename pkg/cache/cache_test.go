package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("k", "v", time.Minute)

	got, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.(string) != "v" {
		t.Errorf("expected 'v', got %v", got)
	}
}

func TestGetMissing(t *testing.T) {
	c := New()
	if _, ok := c.Get("absent"); ok {
		t.Fatalf("expected miss for absent key")
	}
}

func TestExpiry(t *testing.T) {
	c := New()
	c.Set("k", "v", -time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("k", 42, time.Minute)
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after delete")
	}
}
