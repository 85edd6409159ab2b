// Package clock 提供以秒为单位的时间源，缓存与列表均依赖它计算新鲜度。
package clock

import (
	"sync/atomic"
	"time"
)

// Clock 返回自 Unix 纪元以来的整数秒。
type Clock func() int64

// System 使用系统时间。
func System() int64 {
	return time.Now().Unix()
}

// Manual 是可手动推进的时钟，测试中用它固定“当前时间”。
type Manual struct {
	sec atomic.Int64
}

// NewManual 以给定秒数初始化时钟。
func NewManual(sec int64) *Manual {
	m := &Manual{}
	m.sec.Store(sec)
	return m
}

// Now 满足 Clock 签名，可直接以 m.Now 注入。
func (m *Manual) Now() int64 {
	return m.sec.Load()
}

// Set 将时钟拨到指定秒数。
func (m *Manual) Set(sec int64) {
	m.sec.Store(sec)
}

// Advance 将时钟向前推进 delta 秒。
func (m *Manual) Advance(delta int64) {
	m.sec.Add(delta)
}
