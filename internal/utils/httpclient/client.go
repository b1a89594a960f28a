package httpclient

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"TipsSync/internal/config"

	"github.com/sirupsen/logrus"
)

// New 抓取用客户端：单次请求不重试，超时取 scraper.timeout
func New(cfg *config.ScraperConfig, logger *logrus.Logger) *http.Client {
	base := &http.Transport{
		Proxy:               scraperProxy(cfg.Proxy, logger),
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true,
	}
	return &http.Client{
		Timeout:   cfg.FetchTimeout(),
		Transport: &gzipTransport{next: base},
	}
}

// scraperProxy 配置了出站代理就固定走它，否则沿用环境变量
func scraperProxy(raw string, logger *logrus.Logger) func(*http.Request) (*url.URL, error) {
	if raw == "" {
		return http.ProxyFromEnvironment
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		logger.WithError(err).WithField("proxy", raw).Warn("出站代理无效，改用环境变量代理")
		return http.ProxyFromEnvironment
	}
	logger.WithField("proxy", u.Redacted()).Info("抓取客户端使用出站代理")
	return http.ProxyURL(u)
}

type gzipTransport struct {
	next http.RoundTripper
}

func (t *gzipTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "gzip")
	}
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.Header.Get("Content-Encoding") != "gzip" {
		return resp, err
	}

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("gzip响应无法解压: %w", err)
	}
	resp.Body = &gzipBody{Reader: zr, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type gzipBody struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (b *gzipBody) Close() error {
	return errors.Join(b.Reader.Close(), b.raw.Close())
}
