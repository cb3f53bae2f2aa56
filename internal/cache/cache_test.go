package cache

import (
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](2)
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after overwrite = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int, string](2)
	c.Set(1, "one")
	c.Set(2, "two")
	c.Get(1) // 2 is now the oldest

	evicted, ok := c.Set(3, "three")
	if !ok || evicted != "two" {
		t.Fatalf("Set(3) evicted %q, %v, want two, true", evicted, ok)
	}
	if _, ok := c.Get(2); ok {
		t.Error("evicted key still present")
	}
	for _, k := range []int{1, 3} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("key %d missing", k)
		}
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New[int, int](0)
	if got := c.Stats().Capacity; got != 1 {
		t.Errorf("capacity = %d, want 1", got)
	}
	c.Set(1, 1)
	if !c.Delete(1) {
		t.Error("Delete(1) = false")
	}
	if c.Delete(1) {
		t.Error("second Delete(1) = true")
	}
	c.Set(2, 2)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
	c.Set(3, 3)
	if v, ok := c.Get(3); !ok || v != 3 {
		t.Errorf("Get after Clear = %d, %v", v, ok)
	}
}

func TestStats(t *testing.T) {
	c := New[int, int](4)
	c.Set(1, 1)
	c.Get(1)
	c.Get(1)
	c.Get(2)
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Len != 1 || s.Capacity != 4 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](8)
	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				c.Set(i%16, g)
				c.Get(i % 16)
			}
		}()
	}
	wg.Wait()
	if c.Len() > 8 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}
