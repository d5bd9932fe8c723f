package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultProbeURL 连通性探测地址
const DefaultProbeURL = "https://www.google.com"

// HTTPProber 向固定地址发起 GET 请求判断网络是否可用
type HTTPProber struct {
	url    string
	client *http.Client
}

var _ Prober = (*HTTPProber)(nil)

// NewHTTPProber url 为空时使用 DefaultProbeURL
func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	if url == "" {
		url = DefaultProbeURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{url: url, client: &http.Client{Timeout: timeout}}
}

// Probe 状态码 2xx/3xx 视为可达
func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("probe %s: status %d", p.url, resp.StatusCode)
	}
	return nil
}
