// Package listing 将缓存快照整理为按回源时间倒序的摘要，供首页展示。
package listing

import (
	"sort"

	"github.com/mitm-cache/mitm-cache/internal/cache"
	"github.com/mitm-cache/mitm-cache/internal/clock"
)

// Entry 是单条缓存记录的摘要，不包含正文。
type Entry struct {
	URL        string `json:"url"`
	FetchedAt  int64  `json:"fetched_at"`
	AgeSeconds int64  `json:"age_seconds"`
	Bytes      int    `json:"bytes"`
	Hits       int    `json:"hits"`
}

// Build 按 FetchedAt 倒序排列；时间相同的记录保持快照中的顺序。
func Build(records []cache.Record, now int64) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{
			URL:        rec.URL,
			FetchedAt:  rec.FetchedAt,
			AgeSeconds: now - rec.FetchedAt,
			Bytes:      rec.Size(),
			Hits:       rec.Hits,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].FetchedAt > entries[j].FetchedAt
	})
	return entries
}

// Snapshotter 是 Lister 需要的最小缓存能力。
type Snapshotter interface {
	Snapshot() []cache.Record
}

// Lister 读取快照后在锁外完成排序，不会修改命中计数。
type Lister struct {
	store Snapshotter
	now   clock.Clock
}

// NewLister 构造 Lister；now 为 nil 时使用系统时钟。
func NewLister(store Snapshotter, now clock.Clock) *Lister {
	if now == nil {
		now = clock.System
	}
	return &Lister{store: store, now: now}
}

// List 返回当前缓存摘要。
func (l *Lister) List() []Entry {
	return Build(l.store.Snapshot(), l.now())
}
