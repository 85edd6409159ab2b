package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitm-cache/mitm-cache/internal/clock"
)

const testURL = "http://example.com"

func TestLookupFreshMissing(t *testing.T) {
	store := NewStore()
	_, ok := store.LookupFresh(testURL, 60)
	assert.False(t, ok)
}

func TestLookupFreshIncrementsHits(t *testing.T) {
	clk := clock.NewManual(1000)
	store := NewStore(WithClock(clk.Now))
	store.Insert(testURL, "payload", clk.Now())

	clk.Advance(10)
	rec, ok := store.LookupFresh(testURL, 60)
	require.True(t, ok)
	assert.Equal(t, "payload", rec.Body)
	assert.Equal(t, 2, rec.Hits)

	rec, ok = store.LookupFresh(testURL, 60)
	require.True(t, ok)
	assert.Equal(t, 3, rec.Hits)
}

func TestLookupFreshBoundaryIsStale(t *testing.T) {
	clk := clock.NewManual(100)
	store := NewStore(WithClock(clk.Now))
	store.Insert(testURL, "payload", 100)

	clk.Set(159)
	_, ok := store.LookupFresh(testURL, 60)
	assert.True(t, ok, "age 59 < 60 should be fresh")

	clk.Set(160)
	_, ok = store.LookupFresh(testURL, 60)
	assert.False(t, ok, "age equal to max age counts as stale")

	clk.Set(500)
	_, ok = store.LookupFresh(testURL, 60)
	assert.False(t, ok)
}

func TestLookupFreshZeroMaxAgeAlwaysStale(t *testing.T) {
	clk := clock.NewManual(100)
	store := NewStore(WithClock(clk.Now))
	store.Insert(testURL, "payload", 100)

	_, ok := store.LookupFresh(testURL, 0)
	assert.False(t, ok)
}

func TestStaleLookupDoesNotTouchHits(t *testing.T) {
	clk := clock.NewManual(100)
	store := NewStore(WithClock(clk.Now))
	store.Insert(testURL, "payload", 100)

	clk.Set(1000)
	_, ok := store.LookupFresh(testURL, 10)
	require.False(t, ok)

	rec, ok := store.Get(testURL)
	require.True(t, ok)
	assert.Equal(t, 1, rec.Hits)
}

func TestInsertReplacesWithoutMerging(t *testing.T) {
	clk := clock.NewManual(100)
	store := NewStore(WithClock(clk.Now))
	store.Insert(testURL, "old", 100)
	for i := 0; i < 4; i++ {
		_, ok := store.LookupFresh(testURL, 60)
		require.True(t, ok)
	}

	rec := store.Insert(testURL, "new", 200)
	assert.Equal(t, Record{URL: testURL, FetchedAt: 200, Body: "new", Hits: 1}, rec)

	got, ok := store.Get(testURL)
	require.True(t, ok)
	assert.Equal(t, rec, got)
	assert.Equal(t, 1, store.Len())
}

func TestInsertKeepsFetchedAtMonotonic(t *testing.T) {
	store := NewStore()
	store.Insert(testURL, "first", 500)
	rec := store.Insert(testURL, "second", 400)
	assert.Equal(t, int64(500), rec.FetchedAt)
	assert.Equal(t, "second", rec.Body)
}

func TestSnapshotIsCopyInKeyOrder(t *testing.T) {
	store := NewStore()
	store.Insert("http://b", "bb", 1)
	store.Insert("http://a", "a", 2)
	store.Insert("http://c", "ccc", 3)

	snap := store.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"http://a", "http://b", "http://c"}, []string{snap[0].URL, snap[1].URL, snap[2].URL})

	snap[0].Hits = 99
	rec, _ := store.Get("http://a")
	assert.Equal(t, 1, rec.Hits, "snapshot must not alias stored records")
}

func TestMaxEntriesDropsOldest(t *testing.T) {
	store := NewStore(WithMaxEntries(2))
	store.Insert("http://a", "a", 10)
	store.Insert("http://b", "b", 5)
	store.Insert("http://c", "c", 20)

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get("http://b")
	assert.False(t, ok, "oldest record should be dropped")

	// 替换已有 key 不触发淘汰
	store.Insert("http://a", "a2", 30)
	assert.Equal(t, 2, store.Len())
	_, ok = store.Get("http://c")
	assert.True(t, ok)
}

func TestUnboundedByDefault(t *testing.T) {
	store := NewStore()
	for i := 0; i < 100; i++ {
		store.Insert(fmt.Sprintf("http://host/%d", i), "x", int64(i))
	}
	assert.Equal(t, 100, store.Len())
}

func TestConcurrentLookupsCountEveryHit(t *testing.T) {
	clk := clock.NewManual(100)
	store := NewStore(WithClock(clk.Now))
	store.Insert(testURL, "payload", 100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.LookupFresh(testURL, 60)
		}()
	}
	wg.Wait()

	rec, ok := store.Get(testURL)
	require.True(t, ok)
	assert.Equal(t, 51, rec.Hits)
}
