package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mintcart/internal/cart"
	"github.com/mintcart/internal/catalog"
	"github.com/mintcart/internal/logger"
	"github.com/mintcart/internal/models"
	"github.com/mintcart/internal/notify"
	"github.com/mintcart/internal/scheduler"

	"github.com/shopspring/decimal"
)

// 默认校对参数
const (
	DefaultInterval = 5 * time.Minute
	DefaultDriftPct = 5.0
	DefaultExpiry   = 7 * 24 * time.Hour
)

const (
	reconcileTask = "reconcile"
	lookupTimeout = 10 * time.Second
)

// Reconciler 定期把购物车内容与在售目录对账：价格漂移、库存不足、
// 行项过期三道独立检查。单项查询失败只跳过该项，目录整体不可用则
// 本轮放弃，购物车保持最近已知值，绝不因网络故障清空或污染。
type Reconciler struct {
	store    *cart.Store
	catalog  catalog.Client
	notifier notify.Notifier
	sched    *scheduler.Scheduler
	interval time.Duration
	drift    decimal.Decimal // 漂移阈值（比例，如 0.05）
	expiry   time.Duration
}

// Options 校对配置
type Options struct {
	Interval time.Duration
	DriftPct float64
	Expiry   time.Duration
}

// New 创建校对器
func New(store *cart.Store, cat catalog.Client, notifier notify.Notifier, sched *scheduler.Scheduler, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.DriftPct <= 0 {
		opts.DriftPct = DefaultDriftPct
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultExpiry
	}
	return &Reconciler{
		store:    store,
		catalog:  cat,
		notifier: notifier,
		sched:    sched,
		interval: opts.Interval,
		drift:    decimal.NewFromFloat(opts.DriftPct).Div(decimal.NewFromInt(100)),
		expiry:   opts.Expiry,
	}
}

// Start 按固定节奏调度校对
func (r *Reconciler) Start(ctx context.Context) {
	r.sched.Every(reconcileTask, r.interval, func() {
		r.RunOnce(ctx)
	})
}

// Stop 停止调度
func (r *Reconciler) Stop() {
	r.sched.Cancel(reconcileTask)
}

// RunOnce 执行一轮校对
func (r *Reconciler) RunOnce(ctx context.Context) {
	items := r.store.Items()
	if len(items) > 0 && r.catalog != nil {
		if changed := r.validatePrices(ctx, items); changed > 0 {
			r.notify(fmt.Sprintf("%d item(s) in your cart changed price", changed), models.SeverityWarning)
		}
		if short := r.validateStock(ctx, items); short > 0 {
			r.notify(fmt.Sprintf("%d item(s) in your cart exceed current stock", short), models.SeverityError)
		}
	}
	cutoff := time.Now().Add(-r.expiry).UnixMilli()
	if removed := r.store.PruneExpired(cutoff); removed > 0 {
		r.notify(fmt.Sprintf("%d expired item(s) were removed from your cart", removed), models.SeverityInfo)
	}
}

// validatePrices 价格校验：并发查询每个行项的现价，单项失败不影响其余
func (r *Reconciler) validatePrices(ctx context.Context, items []models.LineItem) int {
	type result struct {
		price models.Money
		err   error
	}
	results := make([]result, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
			defer cancel()
			price, err := r.catalog.CurrentPrice(lookupCtx, items[i].CardID, items[i].VariationKey)
			results[i] = result{price: price, err: err}
		}(i)
	}
	wg.Wait()

	changed := 0
	for i := range items {
		if results[i].err != nil {
			logger.Debugw("reconcile_price_lookup_skipped",
				"card_id", items[i].CardID,
				"variation", items[i].VariationKey,
				"error", results[i].err,
			)
			continue
		}
		// 已批注且目录价未再变化的行项不重复计数，否则同一漂移每轮都会提醒买家
		if items[i].PriceChanged && items[i].CurrentPrice != nil && items[i].CurrentPrice.Equal(results[i].price.Decimal) {
			continue
		}
		if !r.drifted(items[i].Price, results[i].price) {
			continue
		}
		if r.store.ApplyPriceDrift(items[i].CardID, items[i].VariationKey, results[i].price) {
			changed++
		}
	}
	return changed
}

// validateStock 库存校验：现库存低于购买数量时批注，不改数量
func (r *Reconciler) validateStock(ctx context.Context, items []models.LineItem) int {
	type result struct {
		stock int
		err   error
	}
	results := make([]result, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
			defer cancel()
			stock, err := r.catalog.CurrentStock(lookupCtx, items[i].CardID, items[i].VariationKey)
			results[i] = result{stock: stock, err: err}
		}(i)
	}
	wg.Wait()

	short := 0
	for i := range items {
		if results[i].err != nil {
			logger.Debugw("reconcile_stock_lookup_skipped",
				"card_id", items[i].CardID,
				"variation", items[i].VariationKey,
				"error", results[i].err,
			)
			continue
		}
		if results[i].stock >= items[i].Quantity {
			continue
		}
		if r.store.ApplyStockShortfall(items[i].CardID, items[i].VariationKey, results[i].stock) {
			short++
		}
	}
	return short
}

// drifted 判断现价相对记录价的偏移是否超过阈值
func (r *Reconciler) drifted(recorded, current models.Money) bool {
	if recorded.IsZero() {
		return false
	}
	ratio := current.Sub(recorded.Decimal).Abs().Div(recorded.Decimal)
	return ratio.GreaterThan(r.drift)
}

func (r *Reconciler) notify(message, severity string) {
	if r.notifier == nil {
		return
	}
	r.notifier.Notify(message, severity, 0)
}
