package cache

import (
	"sort"
	"sync"

	"github.com/mitm-cache/mitm-cache/internal/clock"
)

// Record 描述一个 URL 最近一次回源的结果。
type Record struct {
	URL string `json:"url"`
	// FetchedAt 是回源时刻（Unix 秒）。
	FetchedAt int64 `json:"fetched_at"`
	Body      string `json:"-"`
	// Hits 统计自上次回源以来的新鲜命中次数，插入时为 1。
	Hits int `json:"hits"`
}

// Size 返回正文字节数。
func (r Record) Size() int {
	return len(r.Body)
}

// Option 调整 Store 的构造参数。
type Option func(*Store)

// WithClock 替换默认的系统时钟。
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.now = c
		}
	}
}

// WithMaxEntries 设置可选的容量上限；n<=0 表示不限制。
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// Store 是进程内唯一的缓存实例，所有操作由同一把互斥锁串行化。
type Store struct {
	mu         sync.Mutex
	records    map[string]*Record
	now        clock.Clock
	maxEntries int
}

// NewStore 创建空缓存，调用方应在启动阶段创建一次并注入到各组件。
func NewStore(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]*Record),
		now:     clock.System,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now 返回 Store 使用的时钟读数，编排层用它给新记录打时间戳。
func (s *Store) Now() int64 {
	return s.now()
}

// LookupFresh 在记录存在且 now-FetchedAt < maxAge 时返回其副本并递增 Hits。
// 年龄恰好等于 maxAge 视为过期。
func (s *Store) LookupFresh(url string, maxAge int64) (Record, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[url]
	if !ok {
		return Record{}, false
	}
	if now-rec.FetchedAt >= maxAge {
		return Record{}, false
	}
	rec.Hits++
	return *rec, true
}

// Get 返回记录副本，不影响 Hits。
func (s *Store) Get(url string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[url]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Insert 无条件整体替换 url 对应的记录，新记录 Hits=1。
// 若时钟回拨，FetchedAt 不会早于旧记录。
func (s *Store) Insert(url, body string, fetchedAt int64) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.records[url]
	if exists && fetchedAt < prev.FetchedAt {
		fetchedAt = prev.FetchedAt
	}
	if !exists && s.maxEntries > 0 && len(s.records) >= s.maxEntries {
		s.evictOldestLocked()
	}

	rec := &Record{
		URL:       url,
		FetchedAt: fetchedAt,
		Body:      body,
		Hits:      1,
	}
	s.records[url] = rec
	return *rec
}

// evictOldestLocked 丢弃 FetchedAt 最早的记录，调用方必须持有 mu。
func (s *Store) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  int64
		found     bool
	)
	for key, rec := range s.records {
		if !found || rec.FetchedAt < oldestAt || (rec.FetchedAt == oldestAt && key < oldestKey) {
			oldestKey, oldestAt, found = key, rec.FetchedAt, true
		}
	}
	if found {
		delete(s.records, oldestKey)
	}
}

// Snapshot 在锁内复制全部记录后立即释放锁，结果按 URL 排序保证顺序确定。
func (s *Store) Snapshot() []Record {
	s.mu.Lock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Len 返回当前记录数。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
