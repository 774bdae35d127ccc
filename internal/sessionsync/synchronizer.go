package sessionsync

import (
	"context"
	"time"

	"github.com/mintcart/internal/cart"
	"github.com/mintcart/internal/logger"
	"github.com/mintcart/internal/persist"
	"github.com/mintcart/internal/scheduler"
	"github.com/mintcart/internal/storage"
)

// DefaultPollInterval 轮询兜底间隔
const DefaultPollInterval = time.Second

const pollTaskName = "sessionsync_poll"

// Synchronizer 跨会话同步器。订阅槽的推送通知并以轮询兜底，
// 按信封时间戳做整车 last-writer-wins：严格更新的信封整体替换本地购物车。
// 不做行项级合并——同一轮询窗口内的并发编辑会丢一方，这是单买家
// 场景下的已知取舍。
type Synchronizer struct {
	store       *cart.Store
	adapter     *persist.Adapter
	slot        storage.Slot
	sched       *scheduler.Scheduler
	interval    time.Duration
	cancelWatch func()
}

// New 创建同步器
func New(store *cart.Store, adapter *persist.Adapter, slot storage.Slot, sched *scheduler.Scheduler, interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Synchronizer{
		store:    store,
		adapter:  adapter,
		slot:     slot,
		sched:    sched,
		interval: interval,
	}
}

// Start 启动推送订阅与轮询兜底
func (s *Synchronizer) Start(ctx context.Context) {
	if watcher, ok := s.slot.(storage.Watcher); ok {
		cancel, err := watcher.Watch(ctx, s.onChange)
		if err != nil {
			logger.Warnw("sessionsync_watch_failed", "error", err)
		} else {
			s.cancelWatch = cancel
		}
	}
	s.sched.Every(pollTaskName, s.interval, func() {
		s.Poll(ctx)
	})
}

// Stop 停止订阅与轮询
func (s *Synchronizer) Stop() {
	if s.cancelWatch != nil {
		s.cancelWatch()
		s.cancelWatch = nil
	}
	s.sched.Cancel(pollTaskName)
}

// Poll 重读信封并按 last-writer-wins 合并
func (s *Synchronizer) Poll(ctx context.Context) {
	items, timestamp, result := s.adapter.Peek(ctx)
	switch result {
	case persist.PeekFailed:
		return
	case persist.PeekAbsent:
		// 槽曾有内容而现已缺席：其他会话清空了购物车
		if s.adapter.LastTimestamp() > 0 && len(s.store.Items()) > 0 {
			s.store.ReplaceAll(nil)
			logger.Debugw("sessionsync_adopted_foreign_clear")
		}
		return
	}
	if timestamp <= s.adapter.LastTimestamp() {
		return
	}
	s.store.ReplaceAll(items)
	s.adapter.Adopt(timestamp)
	logger.Debugw("sessionsync_adopted_foreign_write", "timestamp", timestamp, "items", len(items))
}

// onChange 推送通知回调。自家写入的回声直接忽略。
func (s *Synchronizer) onChange(origin string) {
	if origin == s.adapter.Origin() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s.Poll(ctx)
}
