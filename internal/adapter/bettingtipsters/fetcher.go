package bettingtipsters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"TipsSync/internal/config"
	"TipsSync/internal/interfaces"
	"TipsSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// 代理响应体上限，防止异常页面撑爆内存
const maxProxyBody = 16 << 20

// Fetcher 通过抓取代理获取 bettingtipsters 某日页面
type Fetcher struct {
	cfg        *config.ScraperConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// scrapflyResponse 代理返回的 JSON 结构，只关心 result.content
type scrapflyResponse struct {
	Result struct {
		Content    string `json:"content"`
		StatusCode int    `json:"status_code"`
	} `json:"result"`
}

func NewFetcher(cfg *config.ScraperConfig, logger *logrus.Logger) interfaces.PageFetcher {
	return &Fetcher{
		cfg:        cfg,
		httpClient: httpclient.New(cfg, logger),
		logger:     logger,
	}
}

// FetchPage html 非空时原样返回；否则经代理抓取，任何失败都返回空字符串
func (f *Fetcher) FetchPage(ctx context.Context, date string, html string) string {
	if html != "" {
		return html
	}

	content, err := f.fetch(ctx, date)
	if err != nil {
		f.logger.WithError(err).WithField("date", date).Error("抓取页面失败")
		return ""
	}
	f.logger.WithFields(logrus.Fields{
		"date":  date,
		"bytes": len(content),
	}).Info("抓取页面成功")
	return content
}

func (f *Fetcher) fetch(ctx context.Context, date string) (string, error) {
	proxyURL, err := f.buildURL(date)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyURL, nil)
	if err != nil {
		return "", fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求抓取代理失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Errorf("关闭代理响应体失败: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("抓取代理返回状态码%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProxyBody))
	if err != nil {
		return "", fmt.Errorf("读取代理响应失败: %w", err)
	}

	var parsed scrapflyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("解析代理响应失败: %w", err)
	}
	if strings.TrimSpace(parsed.Result.Content) == "" {
		return "", fmt.Errorf("代理响应缺少页面内容（上游状态码%d）", parsed.Result.StatusCode)
	}
	return parsed.Result.Content, nil
}

// buildURL 拼接代理地址：?key=...&asp=true&url=<目标页>
func (f *Fetcher) buildURL(date string) (string, error) {
	base, err := url.Parse(f.cfg.ProxyURL)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("抓取代理地址无效: %q", f.cfg.ProxyURL)
	}
	target := f.cfg.TargetURL
	if strings.Contains(target, "%s") {
		target = fmt.Sprintf(target, date)
	}

	q := base.Query()
	q.Set("key", f.cfg.APIKey)
	q.Set("asp", "true")
	q.Set("url", target)
	base.RawQuery = q.Encode()
	return base.String(), nil
}
