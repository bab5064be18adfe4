package courtside

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func fixedClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestCacheHitWithinTTL(t *testing.T) {
	c := NewResultCache(30*time.Second, 8)
	args := json.RawMessage(`{"team":"Celtics"}`)
	c.Set("get_team_stats", args, ToolResult{Success: true, Data: map[string]any{"wins": 30}})

	got, ok := c.Get("get_team_stats", args)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Data["wins"] != 30 {
		t.Errorf("unexpected value: %v", got.Data)
	}
}

func TestCacheKeyOrderIndependentLookup(t *testing.T) {
	c := NewResultCache(30*time.Second, 8)
	c.Set("get_team_stats", json.RawMessage(`{"team":"Celtics","season":"2025-26"}`), ToolResult{Success: true})

	if _, ok := c.Get("get_team_stats", json.RawMessage(`{"season":"2025-26","team":"Celtics"}`)); !ok {
		t.Error("reordered args must hit the same entry")
	}
}

func TestCacheExpiry(t *testing.T) {
	now, clock := fixedClock(time.Unix(1_700_000_000, 0))
	c := NewResultCache(30*time.Second, 8)
	c.now = clock

	args := json.RawMessage(`{"date":"2026-01-14"}`)
	c.Set("get_scores", args, ToolResult{Success: true})

	*now = now.Add(29 * time.Second)
	if _, ok := c.Get("get_scores", args); !ok {
		t.Fatal("entry expired early")
	}

	*now = now.Add(2 * time.Second)
	if _, ok := c.Get("get_scores", args); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on read, len=%d", c.Len())
	}
}

func TestCacheEvictsOldestAtCeiling(t *testing.T) {
	c := NewResultCache(time.Minute, 3)
	for i := 0; i < 3; i++ {
		c.Set("t", json.RawMessage(fmt.Sprintf(`{"i":%d}`, i)), ToolResult{Success: true})
	}
	c.Set("t", json.RawMessage(`{"i":3}`), ToolResult{Success: true})

	if c.Len() != 3 {
		t.Fatalf("len=%d, want 3", c.Len())
	}
	if _, ok := c.Get("t", json.RawMessage(`{"i":0}`)); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("t", json.RawMessage(`{"i":3}`)); !ok {
		t.Error("newest entry missing")
	}
}

func TestCacheEvictionAfterExpiredReinsert(t *testing.T) {
	now, clock := fixedClock(time.Unix(1_700_000_000, 0))
	c := NewResultCache(30*time.Second, 2)
	c.now = clock

	a := json.RawMessage(`{"team":"Celtics"}`)
	b := json.RawMessage(`{"team":"Lakers"}`)
	d := json.RawMessage(`{"team":"Nuggets"}`)

	c.Set("get_team_stats", a, ToolResult{Success: true})
	*now = now.Add(31 * time.Second)
	if _, ok := c.Get("get_team_stats", a); ok {
		t.Fatal("entry should have expired")
	}

	// Re-insert the same key after its expiry-read, then push past the
	// ceiling. The eviction must take the oldest surviving entry, not the
	// freshly re-inserted one.
	c.Set("get_team_stats", b, ToolResult{Success: true})
	c.Set("get_team_stats", a, ToolResult{Success: true})
	c.Set("get_team_stats", d, ToolResult{Success: true})

	if _, ok := c.Get("get_team_stats", b); ok {
		t.Error("oldest surviving entry should have been evicted")
	}
	if _, ok := c.Get("get_team_stats", a); !ok {
		t.Error("re-inserted entry wrongly evicted")
	}
	if _, ok := c.Get("get_team_stats", d); !ok {
		t.Error("newest entry missing")
	}
}

func TestCacheRefreshKeepsSingleEntry(t *testing.T) {
	now, clock := fixedClock(time.Unix(1_700_000_000, 0))
	c := NewResultCache(30*time.Second, 8)
	c.now = clock

	args := json.RawMessage(`{"team":"Heat"}`)
	c.Set("get_team_stats", args, ToolResult{Success: true, Data: map[string]any{"v": 1}})
	*now = now.Add(20 * time.Second)
	c.Set("get_team_stats", args, ToolResult{Success: true, Data: map[string]any{"v": 2}})

	if c.Len() != 1 {
		t.Fatalf("refresh duplicated entry, len=%d", c.Len())
	}

	// TTL measured from the refresh, not the original insert.
	*now = now.Add(25 * time.Second)
	got, ok := c.Get("get_team_stats", args)
	if !ok {
		t.Fatal("refreshed entry expired early")
	}
	if got.Data["v"] != 2 {
		t.Errorf("stale value after refresh: %v", got.Data)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewResultCache(time.Minute, 64)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				args := json.RawMessage(fmt.Sprintf(`{"j":%d}`, j%8))
				c.Set("t", args, ToolResult{Success: true})
				c.Get("t", args)
			}
		}()
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Errorf("ceiling exceeded: %d", c.Len())
	}
}
