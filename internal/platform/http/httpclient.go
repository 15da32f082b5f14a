package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient はメールAPIなど外部API呼び出し用のHTTPクライアントを作成します。
//
// http.DefaultClientにはタイムアウトがないため、外部呼び出しでは常にこのクライアントを使用します。
// timeoutはリクエスト全体（接続・TLS・レスポンス読み込み）の上限です。
// 0以下の場合は10秒を使用します。
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
