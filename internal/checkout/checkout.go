package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mintcart/internal/cart"
	"github.com/mintcart/internal/models"
	"github.com/mintcart/internal/notify"
)

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrConfigInvalid   = errors.New("checkout config invalid")
	ErrSubmitFailed    = errors.New("order submit failed")
	ErrResponseInvalid = errors.New("order response invalid")
)

// Submitter 订单提交接口
type Submitter interface {
	Submit(ctx context.Context, items []models.LineItem, total models.Money) (string, error)
}

// Config 订单 API 配置
type Config struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// HTTPSubmitter 订单 API 的 HTTP 实现
type HTTPSubmitter struct {
	baseURL string
	http    *http.Client
}

// NewHTTPSubmitter 创建订单提交器
func NewHTTPSubmitter(cfg Config) (*HTTPSubmitter, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: empty base_url", ErrConfigInvalid)
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSubmitter{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// orderRequest 订单提交载荷
type orderRequest struct {
	Items       []models.LineItem `json:"items"`
	Total       models.Money      `json:"total"`
	SubmittedAt int64             `json:"submittedAt"`
}

// orderResponse 订单提交响应
type orderResponse struct {
	OrderNo string `json:"orderNo"`
}

// Submit 提交订单快照
func (s *HTTPSubmitter) Submit(ctx context.Context, items []models.LineItem, total models.Money) (string, error) {
	payload, err := json.Marshal(orderRequest{
		Items:       items,
		Total:       total,
		SubmittedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrSubmitFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	var parsed orderResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return parsed.OrderNo, nil
}

// Service 结账服务：一次性提交整车快照。成功后清空购物车，
// 失败时购物车原样保留，错误原封上抛给结账界面重试。
type Service struct {
	store     *cart.Store
	submitter Submitter
	notifier  notify.Notifier
}

// NewService 创建结账服务
func NewService(store *cart.Store, submitter Submitter, notifier notify.Notifier) *Service {
	return &Service{store: store, submitter: submitter, notifier: notifier}
}

// Checkout 提交当前购物车
func (s *Service) Checkout(ctx context.Context) (string, error) {
	items := s.store.Items()
	if len(items) == 0 {
		return "", ErrCartEmpty
	}
	orderNo, err := s.submitter.Submit(ctx, items, s.store.Total())
	if err != nil {
		return "", err
	}
	s.store.Clear()
	if s.notifier != nil {
		s.notifier.Notify("Order placed successfully", models.SeveritySuccess, 0)
	}
	return orderNo, nil
}
