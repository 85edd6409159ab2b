package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mitm-cache/mitm-cache/internal/cache"
	"github.com/mitm-cache/mitm-cache/internal/fetch"
	"github.com/mitm-cache/mitm-cache/internal/logging"
)

// ErrUnreachable 表示回源失败；缓存保持不变，失败不会被记忆。
var ErrUnreachable = errors.New("upstream unreachable")

// Result 是一次 Proxy 调用的结果。
type Result struct {
	Body string
	// Hit 为 true 表示正文来自新鲜缓存。
	Hit    bool
	Record cache.Record
}

// Orchestrator 串联 Cache Store 与 Origin Fetcher。
type Orchestrator struct {
	store   *cache.Store
	fetcher fetch.Fetcher
	logger  *logrus.Logger
	policy  Policy

	global sync.Mutex
	keys   *keyedMutex
	group  singleflight.Group
}

// NewOrchestrator 构造编排器；logger 为 nil 时丢弃日志。
func NewOrchestrator(store *cache.Store, fetcher fetch.Fetcher, logger *logrus.Logger, policy Policy) *Orchestrator {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	if policy == "" {
		policy = PolicyGlobal
	}
	return &Orchestrator{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		policy:  policy,
		keys:    newKeyedMutex(),
	}
}

// Policy 返回当前生效的回源锁策略。
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Proxy 返回 url 的新鲜缓存正文，缓存缺失或过期时回源并写回缓存。
// maxAge 以秒计，由调用方逐请求指定。
func (o *Orchestrator) Proxy(ctx context.Context, url string, maxAge int64) (Result, error) {
	started := time.Now()

	var (
		res Result
		err error
	)
	switch o.policy {
	case PolicyPerKey:
		res, err = o.proxyPerKey(ctx, url, maxAge)
	case PolicyCoalesce:
		res, err = o.proxyCoalesced(ctx, url, maxAge)
	default:
		res, err = o.proxyGlobal(ctx, url, maxAge)
	}

	o.logResult(url, maxAge, res.Hit, started, err)
	return res, err
}

func (o *Orchestrator) proxyGlobal(ctx context.Context, url string, maxAge int64) (Result, error) {
	o.global.Lock()
	defer o.global.Unlock()
	return o.lookupOrFetch(ctx, url, maxAge)
}

func (o *Orchestrator) proxyPerKey(ctx context.Context, url string, maxAge int64) (Result, error) {
	unlock := o.keys.lock(url)
	defer unlock()
	return o.lookupOrFetch(ctx, url, maxAge)
}

func (o *Orchestrator) proxyCoalesced(ctx context.Context, url string, maxAge int64) (Result, error) {
	if rec, ok := o.store.LookupFresh(url, maxAge); ok {
		return Result{Body: rec.Body, Hit: true, Record: rec}, nil
	}
	value, err, _ := o.group.Do(url, func() (interface{}, error) {
		return o.lookupOrFetch(ctx, url, maxAge)
	})
	if err != nil {
		return Result{}, err
	}
	return value.(Result), nil
}

// lookupOrFetch 是临界区本体，调用方必须已持有对应策略的锁。
func (o *Orchestrator) lookupOrFetch(ctx context.Context, url string, maxAge int64) (Result, error) {
	requestedAt := o.store.Now()
	if rec, ok := o.store.LookupFresh(url, maxAge); ok {
		return Result{Body: rec.Body, Hit: true, Record: rec}, nil
	}

	body, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	rec := o.store.Insert(url, body, requestedAt)
	return Result{Body: body, Hit: false, Record: rec}, nil
}

func (o *Orchestrator) logResult(url string, maxAge int64, cacheHit bool, started time.Time, err error) {
	fields := logging.RequestFields(url, maxAge, string(o.policy), cacheHit)
	fields["action"] = "proxy"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if err != nil {
		fields["error"] = err.Error()
		o.logger.WithFields(fields).Error("proxy_failed")
		return
	}
	o.logger.WithFields(fields).Info("proxy_complete")
}
