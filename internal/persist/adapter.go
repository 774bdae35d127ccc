package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/mintcart/internal/logger"
	"github.com/mintcart/internal/models"
	"github.com/mintcart/internal/notify"
	"github.com/mintcart/internal/storage"
)

// DefaultExpiry 信封过期窗口
const DefaultExpiry = 7 * 24 * time.Hour

// Adapter 持久化适配器：购物车的尽力而为落盘镜像。
// 落盘失败永不上抛，内存态在本会话内保持权威。
type Adapter struct {
	slot     storage.Slot
	notifier notify.Notifier
	origin   string
	expiry   time.Duration
	last     atomic.Int64 // 本会话已知的最新信封时间戳
}

// New 创建持久化适配器。origin 为本会话的写入标识。
func New(slot storage.Slot, notifier notify.Notifier, origin string, expiry time.Duration) *Adapter {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Adapter{
		slot:     slot,
		notifier: notifier,
		origin:   origin,
		expiry:   expiry,
	}
}

// Save 序列化信封并写入槽。失败降级为 warning 通知，不回传错误。
func (a *Adapter) Save(items []models.LineItem) {
	envelope := models.Envelope{
		Cart:      items,
		Timestamp: time.Now().UnixMilli(),
		Version:   models.SchemaVersion,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		logger.Errorw("cart_envelope_marshal_failed", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.slot.Write(ctx, payload, a.origin); err != nil {
		logger.Warnw("cart_save_failed", "error", err)
		if a.notifier != nil {
			a.notifier.Notify("Failed to save your cart, changes are kept for this session only", models.SeverityWarning, 0)
		}
		return
	}
	a.last.Store(envelope.Timestamp)
}

// Wipe 立即删除槽（清空购物车时调用，其他会话下次轮询即可观察到）
func (a *Adapter) Wipe() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.slot.Delete(ctx); err != nil {
		logger.Warnw("cart_wipe_failed", "error", err)
		if a.notifier != nil {
			a.notifier.Notify("Failed to clear your saved cart", models.SeverityWarning, 0)
		}
		return
	}
	a.last.Store(time.Now().UnixMilli())
}

// Load 读取并解码信封。槽缺失、损坏、版本超前一律打开为失败空购物车；
// 超过过期窗口则删除槽并提示。
func (a *Adapter) Load(ctx context.Context) ([]models.LineItem, int64) {
	payload, err := a.slot.Read(ctx)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return nil, 0
	}
	if err != nil {
		logger.Warnw("cart_load_failed", "error", err)
		if a.notifier != nil {
			a.notifier.Notify("Your saved cart could not be loaded", models.SeverityWarning, 0)
		}
		return nil, 0
	}

	envelope, ok := a.decode(payload)
	if !ok {
		return nil, 0
	}
	if a.expired(envelope.Timestamp) {
		if err := a.slot.Delete(ctx); err != nil {
			logger.Warnw("cart_expired_delete_failed", "error", err)
		}
		if a.notifier != nil {
			a.notifier.Notify("Your cart expired and was emptied", models.SeverityInfo, 0)
		}
		return nil, 0
	}
	a.last.Store(envelope.Timestamp)
	return envelope.Cart, envelope.Timestamp
}

// PeekResult 轮询读取结果
type PeekResult int

const (
	PeekOK     PeekResult = iota // 读到有效信封
	PeekAbsent                   // 槽不存在（或信封损坏/过期，等同缺席）
	PeekFailed                   // 存储不可用，本轮放弃
)

// Peek 静默读取信封（轮询专用）：不发通知、不删除槽。
func (a *Adapter) Peek(ctx context.Context) ([]models.LineItem, int64, PeekResult) {
	payload, err := a.slot.Read(ctx)
	if errors.Is(err, storage.ErrSlotNotFound) {
		return nil, 0, PeekAbsent
	}
	if err != nil {
		return nil, 0, PeekFailed
	}
	envelope, ok := a.decode(payload)
	if !ok {
		return nil, 0, PeekAbsent
	}
	if a.expired(envelope.Timestamp) {
		return nil, 0, PeekAbsent
	}
	return envelope.Cart, envelope.Timestamp, PeekOK
}

// LastTimestamp 本会话已知的最新信封时间戳
func (a *Adapter) LastTimestamp() int64 {
	return a.last.Load()
}

// Adopt 采纳外部会话的信封时间戳（跨会话合并后调用）
func (a *Adapter) Adopt(timestamp int64) {
	a.last.Store(timestamp)
}

// Origin 本会话的写入标识
func (a *Adapter) Origin() string {
	return a.origin
}

// decode 解码信封；损坏或版本超前视同缺席
func (a *Adapter) decode(payload []byte) (models.Envelope, bool) {
	var envelope models.Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		logger.Warnw("cart_envelope_malformed", "error", err)
		return models.Envelope{}, false
	}
	if envelope.Version > models.SchemaVersion {
		// 更新的写入方拥有结构定义，本端不猜测其语义
		logger.Warnw("cart_envelope_version_ahead", "version", envelope.Version, "supported", models.SchemaVersion)
		return models.Envelope{}, false
	}
	return envelope, true
}

func (a *Adapter) expired(timestamp int64) bool {
	age := time.Since(time.UnixMilli(timestamp))
	return age > a.expiry
}
