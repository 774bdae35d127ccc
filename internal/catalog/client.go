package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mintcart/internal/models"
)

var (
	ErrConfigInvalid   = errors.New("catalog config invalid")
	ErrRequestFailed   = errors.New("catalog request failed")
	ErrResponseInvalid = errors.New("catalog response invalid")
)

// Client 目录/库存查询接口。两个查询各自独立失败，
// 由调用方按「本轮跳过该项」处理。
type Client interface {
	CurrentPrice(ctx context.Context, cardID uint, variationKey string) (models.Money, error)
	CurrentStock(ctx context.Context, cardID uint, variationKey string) (int, error)
}

// Config 目录 API 配置
type Config struct {
	BaseURL   string `json:"base_url"`   // 目录 API 地址
	TimeoutMS int    `json:"timeout_ms"` // 单次请求超时
}

// HTTPClient 目录 API 的 HTTP 实现
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient 创建目录客户端
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: empty base_url", ErrConfigInvalid)
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// cardStatus 目录返回的单卡现价与库存
type cardStatus struct {
	Price models.Money `json:"price"`
	Stock int          `json:"stock"`
}

// CurrentPrice 查询当前单价
func (c *HTTPClient) CurrentPrice(ctx context.Context, cardID uint, variationKey string) (models.Money, error) {
	status, err := c.fetch(ctx, cardID, variationKey)
	if err != nil {
		return models.Money{}, err
	}
	return status.Price, nil
}

// CurrentStock 查询当前库存
func (c *HTTPClient) CurrentStock(ctx context.Context, cardID uint, variationKey string) (int, error) {
	status, err := c.fetch(ctx, cardID, variationKey)
	if err != nil {
		return 0, err
	}
	return status.Stock, nil
}

func (c *HTTPClient) fetch(ctx context.Context, cardID uint, variationKey string) (*cardStatus, error) {
	url := fmt.Sprintf("%s/cards/%d/status?variation=%s", c.baseURL, cardID, variationKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	var status cardStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return &status, nil
}
