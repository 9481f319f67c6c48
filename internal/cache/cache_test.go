package cache

import (
	"testing"
	"time"
)

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := New[string, int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("user", 1)

	if v, ok := c.Get("user"); !ok || v != 1 {
		t.Fatalf("Get = %d, %v", v, ok)
	}

	now = now.Add(time.Minute)

	if _, ok := c.Get("user"); ok {
		t.Fatalf("entry should expire at its ttl")
	}
	if len(c.m) != 0 {
		t.Fatalf("expired entry should be dropped")
	}
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := New[string, int](0)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("deleted key still present")
	}

	c.Clear()

	if _, ok := c.Get("b"); ok {
		t.Fatalf("Clear should drop everything")
	}
}
