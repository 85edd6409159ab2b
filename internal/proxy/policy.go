package proxy

import (
	"fmt"
	"strings"
	"sync"
)

// Policy 决定回源期间持有哪一把锁。
type Policy string

const (
	// PolicyGlobal 使用一把全局锁串行化所有 lookup+fetch+insert。
	PolicyGlobal Policy = "global"
	// PolicyPerKey 为每个 URL 单独加锁，不同 URL 可并行回源。
	PolicyPerKey Policy = "per-key"
	// PolicyCoalesce 通过 singleflight 合并同一 URL 的并发 miss。
	PolicyCoalesce Policy = "coalesce"
)

// ParsePolicy 标准化配置值，空字符串回退到 PolicyGlobal。
func ParsePolicy(raw string) (Policy, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(raw)); normalized {
	case "", string(PolicyGlobal):
		return PolicyGlobal, nil
	case string(PolicyPerKey):
		return PolicyPerKey, nil
	case string(PolicyCoalesce):
		return PolicyCoalesce, nil
	default:
		return "", fmt.Errorf("unsupported fetch policy: %s", raw)
	}
}

// keyedMutex 通过引用计数为每个 key 维护一把锁，无人等待时回收。
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*entryLock)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	lock := k.locks[key]
	if lock == nil {
		lock = &entryLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		k.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
