package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New[string](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get(k) = %q, %v; want v, true", got, ok)
	}
}

func TestExpiry(t *testing.T) {
	c := New[int](20 * time.Millisecond)

	c.Set("k", 42)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestDelete(t *testing.T) {
	c := New[int](time.Minute)

	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}

	// Deleting an absent key is fine.
	c.Delete("missing")
}

func TestNew_GuardsNonPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		c := New[int](ttl)
		c.Set("k", 1)
		if got, ok := c.Get("k"); !ok || got != 1 {
			t.Errorf("ttl %v: Get(k) = %d, %v; want 1, true", ttl, got, ok)
		}
	}
}

func TestOverwrite(t *testing.T) {
	c := New[int](time.Minute)

	c.Set("k", 1)
	c.Set("k", 2)
	if got, _ := c.Get("k"); got != 2 {
		t.Errorf("Get(k) = %d, want 2", got)
	}
}

func TestStructValues(t *testing.T) {
	type balance struct {
		Available float64
		Currency  string
	}
	c := New[balance](time.Minute)

	c.Set("c1", balance{Available: 24660, Currency: "USD"})
	got, ok := c.Get("c1")
	if !ok || got.Available != 24660 || got.Currency != "USD" {
		t.Errorf("Get(c1) = %+v, %v", got, ok)
	}
}
