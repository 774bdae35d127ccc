package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mintcart/internal/catalog"
	"github.com/mintcart/internal/checkout"
	"github.com/mintcart/internal/config"
	"github.com/mintcart/internal/engine"
	"github.com/mintcart/internal/logger"
	"github.com/mintcart/internal/models"
	"github.com/mintcart/internal/storage"

	"github.com/redis/go-redis/v9"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config
	Redis  *redis.Client

	Engines   *engine.Manager
	Catalog   catalog.Client
	Submitter checkout.Submitter

	// 内存后端：同一买家的多个会话共享同一个槽
	memMu    sync.Mutex
	memSlots map[string]*storage.MemorySlot
}

// NewContainer 初始化容器
func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	c := &Container{
		Config:   cfg,
		memSlots: map[string]*storage.MemorySlot{},
	}

	if cfg.Storage.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warnw("provider_redis_ping_failed", "error", err)
		}
		cancel()
		c.Redis = client
	}

	if cfg.Catalog.BaseURL != "" {
		cat, err := catalog.NewHTTPClient(catalog.Config{
			BaseURL:   cfg.Catalog.BaseURL,
			TimeoutMS: cfg.Catalog.TimeoutMS,
		})
		if err != nil {
			logger.Errorw("provider_init_catalog_failed", "error", err)
		} else {
			c.Catalog = cat
		}
	} else {
		logger.Warnw("provider_catalog_disabled", "reason", "empty_base_url")
	}

	if cfg.Checkout.BaseURL != "" {
		sub, err := checkout.NewHTTPSubmitter(checkout.Config{
			BaseURL:   cfg.Checkout.BaseURL,
			TimeoutMS: cfg.Checkout.TimeoutMS,
		})
		if err != nil {
			logger.Errorw("provider_init_checkout_failed", "error", err)
		} else {
			c.Submitter = sub
		}
	} else {
		logger.Warnw("provider_checkout_disabled", "reason", "empty_base_url")
	}

	c.Engines = engine.NewManager(ctx, c.buildEngine, time.Duration(cfg.Cart.SessionIdleMinutes)*time.Minute)
	return c
}

// buildEngine 按买家键装配会话引擎
func (c *Container) buildEngine(shopperKey string) *engine.Engine {
	cc := c.Config.Cart
	return engine.New(engine.Options{
		Slot:                 c.slotFor(shopperKey),
		Catalog:              c.Catalog,
		PollInterval:         time.Duration(cc.PollIntervalMS) * time.Millisecond,
		ReconcileInterval:    time.Duration(cc.ReconcileIntervalSec) * time.Second,
		DriftPct:             cc.PriceDriftPct,
		Expiry:               time.Duration(cc.ExpiryDays) * 24 * time.Hour,
		NotificationDuration: time.Duration(cc.NotificationDurationMS) * time.Millisecond,
	})
}

// slotFor 按配置的后端为买家键选择持久化槽
func (c *Container) slotFor(shopperKey string) storage.Slot {
	switch c.Config.Storage.Backend {
	case "redis":
		return storage.NewRedisSlot(c.Redis, c.Config.Storage.Redis.Prefix, shopperKey)
	case "database":
		return storage.NewDBSlot(models.DB, shopperKey)
	default:
		c.memMu.Lock()
		defer c.memMu.Unlock()
		slot, ok := c.memSlots[shopperKey]
		if !ok {
			slot = storage.NewMemorySlot()
			c.memSlots[shopperKey] = slot
		}
		return slot
	}
}

// Close 关闭容器持有的资源
func (c *Container) Close() {
	if c.Engines != nil {
		c.Engines.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warnw("provider_close_redis_failed", "error", err)
		}
	}
}
