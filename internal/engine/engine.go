package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mintcart/internal/cart"
	"github.com/mintcart/internal/catalog"
	"github.com/mintcart/internal/notify"
	"github.com/mintcart/internal/persist"
	"github.com/mintcart/internal/reconcile"
	"github.com/mintcart/internal/scheduler"
	"github.com/mintcart/internal/sessionsync"
	"github.com/mintcart/internal/storage"

	"github.com/google/uuid"
)

// Options 引擎装配参数
type Options struct {
	Slot                 storage.Slot
	Catalog              catalog.Client
	PollInterval         time.Duration
	ReconcileInterval    time.Duration
	DriftPct             float64
	Expiry               time.Duration
	NotificationDuration time.Duration
}

// Engine 单会话购物车引擎：内存购物车及其持久化、跨会话同步、
// 目录校对与通知的装配体。一个会话对应一个引擎实例。
type Engine struct {
	Store    *cart.Store
	Notifier *notify.Emitter

	adapter      *persist.Adapter
	synchronizer *sessionsync.Synchronizer
	reconciler   *reconcile.Reconciler
	sched        *scheduler.Scheduler
	lastSeen     atomic.Int64
}

// New 装配引擎（未启动）
func New(opts Options) *Engine {
	sched := scheduler.New()
	emitter := notify.NewEmitter(sched, opts.NotificationDuration)
	origin := uuid.NewString()
	adapter := persist.New(opts.Slot, emitter, origin, opts.Expiry)
	store := cart.NewStore(adapter)
	synchronizer := sessionsync.New(store, adapter, opts.Slot, sched, opts.PollInterval)
	reconciler := reconcile.New(store, opts.Catalog, emitter, sched, reconcile.Options{
		Interval: opts.ReconcileInterval,
		DriftPct: opts.DriftPct,
		Expiry:   opts.Expiry,
	})

	e := &Engine{
		Store:        store,
		Notifier:     emitter,
		adapter:      adapter,
		synchronizer: synchronizer,
		reconciler:   reconciler,
		sched:        sched,
	}
	e.Touch()
	return e
}

// Start 水合购物车并启动同步与校对
func (e *Engine) Start(ctx context.Context) {
	items, _ := e.adapter.Load(ctx)
	if len(items) > 0 {
		e.Store.ReplaceAll(items)
	}
	e.synchronizer.Start(ctx)
	e.reconciler.Start(ctx)
}

// Close 会话销毁：退订变更通知并取消全部定时任务
func (e *Engine) Close() {
	e.synchronizer.Stop()
	e.reconciler.Stop()
	e.sched.Stop()
}

// Touch 记录会话活跃时间
func (e *Engine) Touch() {
	e.lastSeen.Store(time.Now().UnixMilli())
}

// IdleSince 距最近活跃的时长
func (e *Engine) IdleSince() time.Duration {
	return time.Since(time.UnixMilli(e.lastSeen.Load()))
}
