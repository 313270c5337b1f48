package cache

import (
	"net/url"
	"testing"
	"time"
)

func TestHashKey(t *testing.T) {
	a := url.Values{}
	a.Set("survey", "S1")
	a.Set("limit", "50")

	b := url.Values{}
	b.Set("limit", "50")
	b.Set("survey", "S1")

	if HashKey("/api/responses", a) != HashKey("/api/responses", b) {
		t.Error("parameter order should not change the key")
	}
	if HashKey("/api/responses", a) == HashKey("/api/survey/S1", a) {
		t.Error("different endpoints should produce different keys")
	}

	c := url.Values{}
	c.Set("survey", "S2")
	c.Set("limit", "50")
	if HashKey("/api/responses", a) == HashKey("/api/responses", c) {
		t.Error("different parameters should produce different keys")
	}
}

func TestPutAndGet(t *testing.T) {
	c := New(time.Hour)

	c.Put("k1", []byte(`{"data":[]}`))

	payload, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(payload) != `{"data":[]}` {
		t.Errorf("unexpected payload: %s", payload)
	}

	if _, ok := c.Get("k2"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestTTLExpiration(t *testing.T) {
	c := New(time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("k1", []byte("data"))

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := c.Get("k1"); ok {
		t.Error("expected miss after TTL expiration")
	}
}

func TestStats(t *testing.T) {
	c := New(time.Hour)

	c.Put("k1", []byte("data"))
	c.Get("k1") // hit
	c.Get("k2") // miss

	stats := c.Stats()
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestClear(t *testing.T) {
	c := New(time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("old", []byte("data"))
	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	c.Put("fresh", []byte("data"))

	c.Clear(true)
	if _, ok := c.Get("fresh"); !ok {
		t.Error("expired-only clear removed a fresh entry")
	}
	if stats := c.Stats(); stats.Entries != 1 {
		t.Errorf("expected 1 entry after expired clear, got %d", stats.Entries)
	}

	c.Clear(false)
	if stats := c.Stats(); stats.Entries != 0 {
		t.Errorf("expected 0 entries after full clear, got %d", stats.Entries)
	}
}
