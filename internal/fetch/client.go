package fetch

import (
	"net"
	"net/http"
	"time"
)

// Shared HTTP transport tunings，复用长连接；整体超时交给调用方决定。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewClient 返回共享 http.Client；timeout<=0 时不设置整体超时，只保留 transport 默认值。
func NewClient(timeout time.Duration) *http.Client {
	client := &http.Client{
		Transport: defaultTransport.Clone(),
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}
