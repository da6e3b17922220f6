package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCacheEviction(t *testing.T) {
	cache := NewLRUCache[string](3, time.Hour)

	cache.Set("key1", "value1")
	cache.Set("key2", "value2")
	cache.Set("key3", "value3")
	cache.Get("key1")           // key1 becomes most recent
	cache.Set("key4", "value4") // evicts key2

	if _, found := cache.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := cache.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if cache.Size() != 3 {
		t.Errorf("size = %d, want 3", cache.Size())
	}
}

func TestLRUCacheTTLExpiration(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewLRUCache[string](10, time.Minute)
	cache.now = clock.now

	cache.Set("a", "1")
	cache.Set("b", "2")
	if _, found := cache.Get("a"); !found {
		t.Fatal("a should exist immediately")
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, found := cache.Get("a"); found {
		t.Error("a should have expired")
	}

	m := NewManager()
	m.Register(cache)
	if n := m.Sweep(); n != 1 {
		t.Errorf("sweep removed %d entries, want 1", n)
	}
	if cache.Size() != 0 {
		t.Errorf("size after sweep = %d, want 0", cache.Size())
	}
}

func TestLRUCacheTouchSlidesExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewLRUCache[string](10, time.Minute)
	cache.now = clock.now

	cache.Set("touched", "1")
	cache.Set("read", "2")
	for i := 0; i < 4; i++ {
		clock.t = clock.t.Add(30 * time.Second)
		if _, found := cache.Touch("touched"); !found {
			t.Fatalf("touched entry expired after %d accesses", i+1)
		}
		cache.Get("read")
	}

	if _, found := cache.Get("read"); found {
		t.Error("Get must not extend the expiry")
	}
	if _, found := cache.Get("touched"); !found {
		t.Error("touched entry should still be live")
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, found := cache.Touch("touched"); found {
		t.Error("Touch must not revive an expired entry")
	}
}

func TestLRUCacheWithoutTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	cache := NewLRUCache[int](2, 0)
	cache.now = clock.now
	cache.Set("a", 1)
	clock.t = clock.t.Add(24 * time.Hour)
	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Fatalf("entry without ttl expired: %v %v", v, ok)
	}
	if n := cache.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired removed %d entries without ttl", n)
	}
}

func TestUnboundedConcurrentAccess(t *testing.T) {
	c := NewUnbounded[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := strconv.Itoa(i % 10)
			c.Set(key, i)
			c.Get(key)
		}(i)
	}
	wg.Wait()
	if c.Size() != 10 {
		t.Fatalf("size = %d, want 10", c.Size())
	}
	c.Delete("0")
	if _, ok := c.Get("0"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop() // second stop is a no-op
}
